package mysql

import "github.com/redbco/redb-connect/pkg/adapter"

func init() {
	// Register MySQL adapter with the global registry
	adapter.Register(NewAdapter())
}
