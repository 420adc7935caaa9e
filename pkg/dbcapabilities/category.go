package dbcapabilities

import (
	"fmt"
	"strings"
)

// Category is the data paradigm declared for a database. The manager selects
// exactly one query strategy per category.
type Category string

const (
	CategoryRelational    Category = "relational"
	CategoryDocument      Category = "document"
	CategoryKeyValue      Category = "key-value"
	CategoryWideColumn    Category = "wide-column"
	CategoryGraph         Category = "graph"
	CategorySearch        Category = "search"
	CategoryTimeSeries    Category = "time-series"
	CategoryColumnar      Category = "columnar"
	CategoryVector        Category = "vector"
	CategoryObjectStorage Category = "object-storage"
)

var categoryAliases = map[string]Category{
	"relational":        CategoryRelational,
	"sql":               CategoryRelational,
	"document":          CategoryDocument,
	"nosql_document":    CategoryDocument,
	"key-value":         CategoryKeyValue,
	"keyvalue":          CategoryKeyValue,
	"key_value":         CategoryKeyValue,
	"kv":                CategoryKeyValue,
	"nosql_key_value":   CategoryKeyValue,
	"wide-column":       CategoryWideColumn,
	"widecolumn":        CategoryWideColumn,
	"wide_column":       CategoryWideColumn,
	"nosql_wide_column": CategoryWideColumn,
	"graph":             CategoryGraph,
	"nosql_graph":       CategoryGraph,
	"search":            CategorySearch,
	"searchindex":       CategorySearch,
	"nosql_search":      CategorySearch,
	"time-series":       CategoryTimeSeries,
	"timeseries":        CategoryTimeSeries,
	"time_series":       CategoryTimeSeries,
	"columnar":          CategoryColumnar,
	"data_warehouse":    CategoryColumnar,
	"warehouse":         CategoryColumnar,
	"vector":            CategoryVector,
	"vector_database":   CategoryVector,
	"object-storage":    CategoryObjectStorage,
	"objectstorage":     CategoryObjectStorage,
	"object_storage":    CategoryObjectStorage,
}

// Categories returns the closed set of categories.
func Categories() []Category {
	return []Category{
		CategoryRelational,
		CategoryDocument,
		CategoryKeyValue,
		CategoryWideColumn,
		CategoryGraph,
		CategorySearch,
		CategoryTimeSeries,
		CategoryColumnar,
		CategoryVector,
		CategoryObjectStorage,
	}
}

// ParseCategory resolves a category name, accepting the legacy descriptor
// spellings (nosql_document, data_warehouse, ...).
func ParseCategory(name string) (Category, error) {
	c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unknown database category %q", name)
	}
	return c, nil
}

// IsSQL reports whether databases in the category are driven through database/sql.
func (c Category) IsSQL() bool {
	return c == CategoryRelational || c == CategoryColumnar
}

func (c Category) String() string {
	return string(c)
}
