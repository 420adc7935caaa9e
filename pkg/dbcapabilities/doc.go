// Package dbcapabilities describes the database technologies the connector
// knows about: their category, default port, default driver and query-syntax
// dialect. The catalog uses it to fill gaps in descriptor entries and the
// manager uses Category to pick a query strategy.
//
// Minimal usage example:
//
//	import "github.com/redbco/redb-connect/pkg/dbcapabilities"
//
//	func defaultPort(db string) int {
//	    c, ok := dbcapabilities.GetByName(db)
//	    if !ok {
//	        return 0
//	    }
//	    return c.DefaultPort
//	}
//
// Category names from older descriptors (nosql_document, data_warehouse, ...)
// are accepted by ParseCategory.
package dbcapabilities
