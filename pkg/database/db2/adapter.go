//go:build enterprise

// Package db2 registers the "go_ibm_db" driver for IBM Db2. It links against
// the Db2 CLI driver and is only built with the enterprise tag.
package db2

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/ibmdb/go_ibm_db"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "go_ibm_db"

// Adapter implements the adapter.DatabaseAdapter interface for Db2.
type Adapter struct{}

// NewAdapter creates a new Db2 adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect establishes a connection to a Db2 database.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	return adapter.OpenSQL(ctx, a, config, "go_ibm_db", ConnString(config))
}

// ConnString builds the CLI keyword string HOSTNAME=..;DATABASE=..;...
func ConnString(config adapter.ConnectionConfig) string {
	if config.ConnectionString != "" {
		return config.ConnectionString
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "HOSTNAME=%s;DATABASE=%s;PORT=%d;UID=%s;PWD=%s;",
		config.Host, config.DatabaseName, config.Port, config.Username, config.Password)

	if config.SSL {
		sb.WriteString("Security=SSL;")
		if config.SSLCert != "" && config.SSLKey != "" {
			fmt.Fprintf(&sb, "SSLClientKeystoredb=%s;SSLClientKeystash=%s;", config.SSLCert, config.SSLKey)
		}
		if config.SSLRootCert != "" {
			fmt.Fprintf(&sb, "SSLServerCertificate=%s;", config.SSLRootCert)
		}
	}
	if config.Timeout > 0 {
		fmt.Fprintf(&sb, "ConnectTimeout=%d;", int(config.Timeout.Seconds()))
	}
	return sb.String()
}
