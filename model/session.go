package model

const (
	ShortGameTurns = 50
	LongGameTurns  = 500
)

// Session represents an arena game
type Session struct {
	ID         string `json:"id"`
	Short      bool   `json:"short"`
	TotalTurns int    `json:"totalTurns"`
}

// NewSession creates a session with the turn budget implied by its length.
func NewSession(id string, short bool) *Session {
	ret := &Session{ID: id, Short: short, TotalTurns: LongGameTurns}
	if short {
		ret.TotalTurns = ShortGameTurns
	}
	return ret
}

// Turn is the arena feed for a single turn
type Turn struct {
	Current int        `json:"current_turn"`
	Jobs    []*JobSpec `json:"jobs"`
}

// Status represents the arena view of a session
type Status struct {
	Completed  bool `json:"completed"`
	Cost       int  `json:"cost,omitempty"`
	DelayTurns int  `json:"delay_turns,omitempty"`
}
