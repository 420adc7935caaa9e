// Package adapter provides the unified interface for all database drivers.
//
// This package defines the contracts that driver packages must follow and the
// error taxonomy shared by the catalog, connector and manager packages.
//
// # Architecture
//
//   - DatabaseAdapter: implemented once per driver, opens connections
//   - Connection: an active connection; Raw() exposes the native client
//   - Registry: maps driver names to adapters
//   - ConnectionConfig: typed view of resolved descriptor parameters
//
// # Usage
//
// Driver packages register themselves from init():
//
//	import "github.com/redbco/redb-connect/pkg/adapter"
//
//	func init() {
//	    adapter.Register(NewAdapter())
//	}
//
// The binary blank-imports the drivers it wants to ship:
//
//	import _ "github.com/redbco/redb-connect/pkg/database/all"
//
// Then connect:
//
//	params := adapter.Params{
//	    {Name: "host", Value: "localhost"},
//	    {Name: "port", Value: "3306"},
//	    {Name: "user", Value: "root"},
//	}
//	config, err := adapter.ConfigFromParams("mysql", dbcapabilities.MySQL, "mysql", params)
//	if err != nil {
//	    return err
//	}
//	conn, err := adapter.GlobalRegistry().Connect(ctx, config)
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//
// # Errors
//
// Every error returned by this module belongs to the taxonomy in errors.go
// and can be classified with errors.Is against the Err* sentinels:
//
//	if errors.Is(err, adapter.ErrConfigNotFound) { ... }
//
//	var execErr *adapter.ExecutionError
//	if errors.As(err, &execErr) {
//	    native := execErr.Cause
//	}
package adapter
