package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// IntList is an ordered list of ints persisted as JSON text.
// Order is preserved exactly through Value/Scan.
type IntList []int

// Value implements driver.Valuer.
func (l IntList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(l))
	if err != nil {
		return nil, fmt.Errorf("encode int list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *IntList) Scan(src any) error {
	raw, err := textOf(src)
	if err != nil {
		return fmt.Errorf("scan int list: %w", err)
	}
	if len(raw) == 0 {
		*l = IntList{}
		return nil
	}
	var out []int
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan int list: %w", err)
	}
	*l = out
	return nil
}

// Clone returns an independent copy.
func (l IntList) Clone() IntList {
	if l == nil {
		return nil
	}
	out := make(IntList, len(l))
	copy(out, l)
	return out
}

// Contains reports whether v is in the list.
func (l IntList) Contains(v int) bool {
	for _, x := range l {
		if x == v {
			return true
		}
	}
	return false
}

// Set returns the list as a membership set.
func (l IntList) Set() map[int]bool {
	out := make(map[int]bool, len(l))
	for _, x := range l {
		out[x] = true
	}
	return out
}

// StringList is an ordered list of strings persisted as JSON text.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("encode string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	raw, err := textOf(src)
	if err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	if len(raw) == 0 {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	*l = out
	return nil
}

// Clone returns an independent copy.
func (l StringList) Clone() StringList {
	if l == nil {
		return nil
	}
	out := make(StringList, len(l))
	copy(out, l)
	return out
}

func textOf(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", src)
	}
}
