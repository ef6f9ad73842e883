package session

// State is the authentication state of a [Session].
type State int

const (
	// Unknown is the initial state, before the first probe.
	Unknown State = iota
	// Checking means a probe request is in flight.
	Checking
	// NotRequired means the API answered the anonymous probe without asking for a credential.
	NotRequired
	// Unauthenticated means a credential is required but absent or rejected.
	Unauthenticated
	// Authenticated means a valid credential is held.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Checking:
		return "checking"
	case NotRequired:
		return "not required"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "invalid"
	}
}

// CanFetch reports whether API calls may be made in this state.
func (s State) CanFetch() bool {
	return s == Authenticated || s == NotRequired
}
