package model

// RecordChange describes one field that differs between two records of the
// same domain.
type RecordChange struct {
	// Field is the JSON name of the changed field, e.g. "endpoints.enroll".
	Field string `json:"field"`

	// Old is the previous value.
	Old string `json:"old"`

	// New is the current value.
	New string `json:"new"`
}

// DiffRecords returns the field changes from prev to curr, in a fixed field
// order. It returns an empty slice when the records are equal.
func DiffRecords(prev, curr DomainRecord) []RecordChange {
	fields := []struct {
		name     string
		old, new string
	}{
		{"name", prev.Name, curr.Name},
		{"description", prev.Description, curr.Description},
		{"icon", prev.Icon, curr.Icon},
		{"endpoints.enroll", prev.Endpoints.Enroll, curr.Endpoints.Enroll},
		{"endpoints.manage", prev.Endpoints.Manage, curr.Endpoints.Manage},
	}

	changes := make([]RecordChange, 0)
	for _, f := range fields {
		if f.old != f.new {
			changes = append(changes, RecordChange{Field: f.name, Old: f.old, New: f.new})
		}
	}
	return changes
}
