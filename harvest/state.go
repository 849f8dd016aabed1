package harvest

// RunState is the process-wide mutable state of one ingestion run. It is
// exclusively owned by the harvester's single control flow — no locking.
// Durability never depends on it: the append log in the sink is the only
// persistent record, and RunState is discarded at run end.
type RunState struct {
	Target   int
	Captured int
	Loops    int

	// Seen holds every id already captured this run (plus ids replayed
	// from a previous run's output). Membership means "never record again".
	Seen map[string]struct{}

	// ConsecutiveErrors is shared between item-level and page-level
	// failures; any successful capture zeroes it.
	ConsecutiveErrors int

	// SoundUsage caches secondary lookups by sound id. A present key with a
	// nil value means "looked up, unresolved" — distinct from never looked
	// up, so failed lookups are not retried for every reappearance.
	SoundUsage map[string]*int
}

// NewRunState creates the state for a run toward target captures.
func NewRunState(target int) *RunState {
	return &RunState{
		Target:     target,
		Seen:       make(map[string]struct{}),
		SoundUsage: make(map[string]*int),
	}
}

// Remaining is how many more captures the run needs.
func (s *RunState) Remaining() int {
	return s.Target - s.Captured
}

// Done reports whether the target has been reached.
func (s *RunState) Done() bool {
	return s.Captured >= s.Target
}
