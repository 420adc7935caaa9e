package manager

// Record is one row, document, item or object as a field map.
type Record = map[string]interface{}

// Filter selects records by field equality. A nil value matches a missing
// or null field.
type Filter = map[string]interface{}

// InsertResult reports a single insert.
type InsertResult struct {
	// ID is the generated or supplied key, nil when the store does not report one.
	ID           interface{} `json:"id"`
	Acknowledged bool        `json:"acknowledged"`
}

// RecordResult is the outcome for one record of a batch insert.
type RecordResult struct {
	Index int         `json:"index"`
	ID    interface{} `json:"id,omitempty"`
	Err   error       `json:"-"`
}

// InsertManyResult reports a batch insert, one entry per input record.
type InsertManyResult struct {
	Results []RecordResult `json:"results"`
}

// Inserted returns the number of records that were stored.
func (r InsertManyResult) Inserted() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the results of the records that were not stored.
func (r InsertManyResult) Failed() []RecordResult {
	var failed []RecordResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// IDs returns the ids of the stored records in input order.
func (r InsertManyResult) IDs() []interface{} {
	ids := make([]interface{}, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Err == nil {
			ids = append(ids, res.ID)
		}
	}
	return ids
}
