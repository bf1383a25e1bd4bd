package orchestrator

// State represents the turn orchestrator phase.
type State string

const (
	StateAwaitingTurn State = "awaitingTurn"
	StateIngesting    State = "ingesting"
	StatePlacing      State = "placing"
	StateReclaiming   State = "reclaiming"
	StateTerminating  State = "terminating"
	StateDraining     State = "draining"
	StateDone         State = "done"
)

// IsTerminal returns true once the run is over.
func (s State) IsTerminal() bool {
	return s == StateDone
}
