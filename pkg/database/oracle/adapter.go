//go:build enterprise

// Package oracle registers the "godror" driver for Oracle Database. It needs
// the Oracle client libraries at run time and is only built with the
// enterprise tag.
package oracle

import (
	"context"
	"fmt"

	"github.com/godror/godror"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "godror"

// Adapter implements the adapter.DatabaseAdapter interface for Oracle.
type Adapter struct{}

// NewAdapter creates a new Oracle adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect establishes a connection to an Oracle database.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	return adapter.OpenSQL(ctx, a, config, "godror", DSN(config))
}

// DSN builds a godror connection string with host:port/service as the
// connect string.
func DSN(config adapter.ConnectionConfig) string {
	if config.ConnectionString != "" {
		return config.ConnectionString
	}

	var p godror.ConnectionParams
	p.Username = config.Username
	p.Password = godror.NewPassword(config.Password)
	p.ConnectString = fmt.Sprintf("%s/%s", config.Address(), config.OptionString("service_name", config.DatabaseName))
	if config.Timeout > 0 {
		p.ConnectString += fmt.Sprintf("?connect_timeout=%d", int(config.Timeout.Seconds()))
	}
	return p.StringWithPassword()
}
