package postgres

import "github.com/redbco/redb-connect/pkg/adapter"

func init() {
	// Register PostgreSQL adapter with the global registry
	adapter.Register(NewAdapter())
}
