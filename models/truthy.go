package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Truthy decodes any JSON value into a bool using loose truthiness:
// false, 0, "" and null are false, everything else is true.
type Truthy bool

func (t *Truthy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*t = false
		return nil
	}

	switch data[0] {
	case 'n':
		*t = false
	case 't':
		*t = true
	case 'f':
		*t = false
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Truthy(s != "")
	case '{', '[':
		*t = true
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return err
		}
		*t = Truthy(f != 0)
	}
	return nil
}
