package zvt

// State classifies the terminal outcome of one command.
type State int

const (
	StateUnknown State = iota
	StateSuccessful
	StateAbort
	StateNotSupported
	StateTimeout
	StateError
)

func (s State) String() string {
	switch s {
	case StateSuccessful:
		return "Successful"
	case StateAbort:
		return "Abort"
	case StateNotSupported:
		return "NotSupported"
	case StateTimeout:
		return "Timeout"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Result is the terminal outcome of one command. Message carries the abort
// or error text when State is not Successful.
type Result struct {
	State   State
	Message string
}
