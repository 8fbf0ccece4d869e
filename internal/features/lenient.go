package features

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Number decodes a JSON number, numeric string, bool or null. Values that
// cannot be read as a number leave it unset so the caller's default applies.
// Null records an explicit null, which some fields read as "no limit".
type Number struct {
	Value float64
	Set   bool
	Null  bool
}

// NewNumber returns a set Number.
func NewNumber(v float64) Number {
	return Number{Value: v, Set: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		return nil
	case bytes.Equal(data, []byte("null")):
		n.Null = true
		return nil
	case bytes.Equal(data, []byte("true")):
		*n = NewNumber(1)
		return nil
	case bytes.Equal(data, []byte("false")):
		*n = NewNumber(0)
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		n.parse(s)
		return nil
	}
	n.parse(string(data))
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// ParseNumber reads a command-line argument the same way.
func ParseNumber(s string) Number {
	var n Number
	n.parse(s)
	return n
}

func (n *Number) parse(s string) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return
	case "null", "none":
		n.Null = true
		return
	case "true":
		*n = NewNumber(1)
		return
	case "false":
		*n = NewNumber(0)
		return
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*n = NewNumber(f)
	}
}

// Or returns the value, or def when unset.
func (n Number) Or(def float64) float64 {
	if !n.Set {
		return def
	}
	return n.Value
}

// IntOr truncates the value toward zero, or returns def when unset.
func (n Number) IntOr(def int) int {
	if !n.Set {
		return def
	}
	return int(n.Value)
}

// BoolOr treats any non-zero value as true.
func (n Number) BoolOr(def bool) bool {
	if !n.Set {
		return def
	}
	return n.Value != 0
}

// ID decodes an identifier sent either as a JSON number or a string.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	*id = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	if f, err := strconv.ParseFloat(string(data), 64); err == nil && f == float64(int64(f)) {
		*id = ID(strconv.FormatInt(int64(f), 10))
		return nil
	}
	*id = ID(string(data))
	return nil
}

// Int returns the identifier as an integer, or 0 when it is not numeric.
func (id ID) Int() int {
	n, err := strconv.Atoi(string(id))
	if err != nil {
		if f, ferr := strconv.ParseFloat(string(id), 64); ferr == nil {
			return int(f)
		}
		return 0
	}
	return n
}

func (id ID) String() string {
	return string(id)
}
