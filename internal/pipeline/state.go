package pipeline

// State identifies the step an analysis run is currently in. A run moves
// strictly forward: ResolvingIdentity -> LocatingRepositories ->
// ReadingCommits -> Aggregating -> Done, with Failed reachable from any step
// that hits a fatal error. No step is ever retried.
type State int

const (
	StateIdle State = iota
	StateResolvingIdentity
	StateLocatingRepositories
	StateReadingCommits
	StateAggregating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolvingIdentity:
		return "resolving_identity"
	case StateLocatingRepositories:
		return "locating_repositories"
	case StateReadingCommits:
		return "reading_commits"
	case StateAggregating:
		return "aggregating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
