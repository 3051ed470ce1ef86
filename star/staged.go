package star

import "fmt"

// StagedRecord is the source-native representation of one row or document
// entry: an untyped field mapping plus enough provenance to reference the
// record in violations and logs. Staged records are transient; the
// conformance layer converts them into typed dimension or fact records and
// they are never persisted.
type StagedRecord struct {
	Fields   map[string]any
	Source   string // source locator (file path)
	Position int    // 1-based row or entry index within the source
}

// Ref returns a stable human-readable reference for diagnostics,
// e.g. "donors.csv:14".
func (r StagedRecord) Ref() string {
	return fmt.Sprintf("%s:%d", r.Source, r.Position)
}

// String returns the string value of a field, or "" if absent or nil.
func (r StagedRecord) String(field string) string {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Has reports whether the field is present and non-nil.
func (r StagedRecord) Has(field string) bool {
	v, ok := r.Fields[field]
	return ok && v != nil
}
