//go:build enterprise
// +build enterprise

package all

import (
	// Enterprise database adapters (require native dependencies)
	_ "github.com/redbco/redb-connect/pkg/database/db2"
	_ "github.com/redbco/redb-connect/pkg/database/hana"
	_ "github.com/redbco/redb-connect/pkg/database/oracle"
)
