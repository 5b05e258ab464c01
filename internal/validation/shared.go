package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Error carries field-level validation messages.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, field := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(msgs, "; ")
}

// FieldError builds an Error for a single field.
func FieldError(field, msg string) *Error {
	return &Error{Fields: map[string]string{field: msg}}
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

// ParseTime parses a user-supplied date: RFC3339, "2006-01-02T15:04" or "2006-01-02".
// The result is in UTC.
func ParseTime(str string) (time.Time, error) {
	str = strings.TrimSpace(str)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC3339", str)
}
