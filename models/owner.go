package models

import (
	"bytes"
	"encoding/json"
)

// OwnerID is a caller-supplied userId. Only a JSON string sets it; numbers,
// booleans, objects and null decode without error and match no owner.
type OwnerID struct {
	Value string
	Set   bool
}

func (o *OwnerID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*o = OwnerID{}
	if len(data) == 0 || data[0] != '"' {
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Set = true
	return nil
}

// Owns reports whether o names the owner of e.
func (o OwnerID) Owns(e Event) bool {
	return o.Set && o.Value == e.UserID
}
