package model

import (
	"fmt"
	"strings"
)

// PlacementMode selects how the placement heuristic treats a job that does not
// fit any machine.
type PlacementMode string

const (
	// ModeStrict places only onto a machine with strictly more free capacity
	// than required, otherwise grows the pool.
	ModeStrict PlacementMode = "strict"
	// ModeDelay overcommits the machine with the most free capacity instead of
	// growing the pool.
	ModeDelay PlacementMode = "delay"
)

// ParsePlacementMode parses a mode name (case-insensitive).
func ParsePlacementMode(value string) (PlacementMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(ModeStrict):
		return ModeStrict, nil
	case string(ModeDelay), "delay_tolerant", "delay-tolerant":
		return ModeDelay, nil
	}
	return "", fmt.Errorf("unsupported placement mode: %q", value)
}

func (m PlacementMode) String() string {
	if m == "" {
		return string(ModeStrict)
	}
	return string(m)
}

// Set implements pflag.Value.
func (m *PlacementMode) Set(value string) error {
	mode, err := ParsePlacementMode(value)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// Type implements pflag.Value.
func (m *PlacementMode) Type() string {
	return "mode"
}

// UnmarshalText allows the mode to be decoded from YAML/JSON config.
func (m *PlacementMode) UnmarshalText(text []byte) error {
	return m.Set(string(text))
}

func (m PlacementMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
