package cosmosdb

import "github.com/redbco/redb-connect/pkg/adapter"

func init() {
	adapter.Register(NewAdapter())
}
