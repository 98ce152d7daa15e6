package util

import (
	"encoding/json"
	"testing"
)

func TestLooseStringDecode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"string", `" 12.50 "`, "12.50"},
		{"integer", `10`, "10"},
		{"float", `1500.75`, "1500.75"},
		{"whole float", `3.0`, "3.0"},
		{"null", `null`, ""},
		{"bool", `true`, "true"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var value LooseString
			if err := json.Unmarshal([]byte(tc.input), &value); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if value.String() != tc.expected {
				t.Fatalf("expected %q got %q", tc.expected, value)
			}
		})
	}

	var value LooseString
	if err := json.Unmarshal([]byte(`{"a":1}`), &value); err == nil {
		t.Fatalf("objects should not decode")
	}
}

func TestTimer(t *testing.T) {
	var zero Timer
	if zero.Elapsed() != 0 || zero.ElapsedMs() != 0 {
		t.Fatalf("zero timer should report zero")
	}
	timer := StartTimer()
	if timer.Started().IsZero() || timer.Elapsed() < 0 {
		t.Fatalf("started timer should be running")
	}
}
