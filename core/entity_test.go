package core

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestDefaultState(t *testing.T) {
	state := DefaultState()

	if !json.Valid(state) {
		t.Fatalf("DefaultState() is not valid JSON: %s", state)
	}

	var decoded struct {
		Type    string `json:"type"`
		Content []any  `json:"content"`
	}
	if err := json.Unmarshal(state, &decoded); err != nil {
		t.Fatalf("Failed to decode default state: %v", err)
	}
	if decoded.Type != "doc" {
		t.Errorf("Default state type mismatch: got %q, want %q", decoded.Type, "doc")
	}
	if len(decoded.Content) != 0 {
		t.Errorf("Default state content should be empty, got %d elements", len(decoded.Content))
	}
}

func TestEqual_IgnoresWhitespace(t *testing.T) {
	a := DocumentState(`{"type":"doc","content":[]}`)
	b := DocumentState(`{ "type": "doc", "content": [] }`)

	if !a.Equal(b) {
		t.Error("States differing only in whitespace should be equal")
	}
}

func TestEqual_DifferentContent(t *testing.T) {
	a := DocumentState(`{"type":"doc","content":[]}`)
	b := DocumentState(`{"type":"doc","content":[{"type":"paragraph"}]}`)

	if a.Equal(b) {
		t.Error("States with different content should not be equal")
	}
}

func TestEqual_Self(t *testing.T) {
	state := DefaultState()
	if !state.Equal(state) {
		t.Error("State should equal itself")
	}
}

func TestCanonical_Compacts(t *testing.T) {
	state := DocumentState(`{ "type" : "doc" }`)
	want := []byte(`{"type":"doc"}`)

	if got := state.Canonical(); !bytes.Equal(got, want) {
		t.Errorf("Canonical() mismatch: got %s, want %s", got, want)
	}
}

func TestClone_Independent(t *testing.T) {
	original := DocumentState(`{"type":"doc"}`)
	clone := original.Clone()

	clone[0] = 'X'
	if original[0] == 'X' {
		t.Error("Mutating a clone must not affect the original")
	}
}

func TestClone_Nil(t *testing.T) {
	var state DocumentState
	if clone := state.Clone(); clone != nil {
		t.Errorf("Clone of nil state should be nil, got %v", clone)
	}
}

func TestMarshalJSON_RoundTrip(t *testing.T) {
	state := DocumentState(`{"type":"doc","content":[]}`)

	encoded, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded DocumentState
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if !state.Equal(decoded) {
		t.Errorf("Round trip mismatch: got %s, want %s", decoded, state)
	}
}

func TestMarshalJSON_Empty(t *testing.T) {
	var state DocumentState

	encoded, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(encoded) != "null" {
		t.Errorf("Empty state should marshal to null, got %s", encoded)
	}
}
