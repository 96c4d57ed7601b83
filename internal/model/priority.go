package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Priority is the canonical two-value priority. Legacy values are mapped on read.
type Priority string

const (
	PriorityImportant Priority = "important"
	PriorityFlexible  Priority = "flexible"
)

// ParsePriority maps current and legacy priority labels onto Priority.
// Anything unrecognised is flexible.
func ParsePriority(raw string) Priority {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "important", "high", "non-negotiable":
		return PriorityImportant
	default:
		return PriorityFlexible
	}
}

// Rank orders priorities for sorting; lower comes first.
func (p Priority) Rank() int {
	if p == PriorityImportant {
		return 0
	}
	return 1
}

func (p *Priority) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*p = PriorityFlexible
	case string:
		*p = ParsePriority(v)
	case []byte:
		*p = ParsePriority(string(v))
	default:
		return fmt.Errorf("scan priority: unsupported type %T", value)
	}
	return nil
}

func (p Priority) Value() (driver.Value, error) {
	return string(ParsePriority(string(p))), nil
}
