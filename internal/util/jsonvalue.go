package util

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// LooseString decodes a JSON string, number or boolean into its text form.
// null decodes to the empty string.
type LooseString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = LooseString(strings.TrimSpace(text))
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err == nil {
		*s = LooseString(number.String())
		return nil
	}
	var flag bool
	if err := json.Unmarshal(data, &flag); err != nil {
		return err
	}
	*s = LooseString(strconv.FormatBool(flag))
	return nil
}

// String returns the decoded text.
func (s LooseString) String() string {
	return string(s)
}
