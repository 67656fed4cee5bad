package lock

// ProtectedField names an event attribute that falls under the lock window.
type ProtectedField string

const (
	FieldMenu           ProtectedField = "menu"
	FieldNote           ProtectedField = "note"
	FieldLayout         ProtectedField = "layout"
	FieldStructuredMenu ProtectedField = "structured_menu"
)

// ProtectedFields is the authoritative set of guarded attributes, in the
// order they are reported to callers. The write guard and the snapshot
// builder both consult this list; do not duplicate it elsewhere.
var ProtectedFields = []ProtectedField{
	FieldMenu,
	FieldNote,
	FieldLayout,
	FieldStructuredMenu,
}

// IsProtected reports whether the named field is subject to the lock window.
func IsProtected(field string) bool {
	for _, protected := range ProtectedFields {
		if string(protected) == field {
			return true
		}
	}
	return false
}

// TouchedProtected returns the protected fields present in an update
// payload, preserving the canonical ProtectedFields order. Fields outside
// the protected set are ignored.
func TouchedProtected(payloadFields []string) []ProtectedField {
	present := make(map[string]struct{}, len(payloadFields))
	for _, field := range payloadFields {
		present[field] = struct{}{}
	}

	touched := make([]ProtectedField, 0, len(ProtectedFields))
	for _, protected := range ProtectedFields {
		if _, ok := present[string(protected)]; ok {
			touched = append(touched, protected)
		}
	}
	if len(touched) == 0 {
		return nil
	}
	return touched
}

// FieldNames converts protected fields back to their wire names.
func FieldNames(fields []ProtectedField) []string {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, string(field))
	}
	return names
}
