package rewrite

// State is the position of the matcher along the literal "https://".
// The value of a State equals the number of pattern bytes held pending.
type State uint8

const (
	StateInitial State = iota
	StateH
	StateHT
	StateHTT
	StateHTTP
	StateHTTPS
	StateHTTPSColon
	StateHTTPSColonSlash
)

// Op is what Consume has to do with the pending and output buffers after a
// transition.
type Op uint8

const (
	// OpAdvance appends the byte to the pending buffer.
	OpAdvance Op = iota
	// OpRestart emits the pending buffer unchanged and starts a new pending
	// buffer holding only the byte ('h').
	OpRestart
	// OpReject emits the pending buffer unchanged followed by the byte.
	OpReject
	// OpMatch emits "http://" and clears the pending buffer.
	OpMatch
)

const (
	securePrefix    = "https://"
	plaintextPrefix = "http://"
)

// maxPending is the longest pending buffer: "https:/".
const maxPending = len(securePrefix) - 1

// Transition is the matcher's transition table. It has no side effects.
func Transition(s State, c byte) (State, Op) {
	// 'h' always starts a fresh candidate, whatever was pending.
	if c == 'h' {
		return StateH, OpRestart
	}
	if s == StateInitial {
		return StateInitial, OpReject
	}
	if c != securePrefix[s] {
		return StateInitial, OpReject
	}
	if s == StateHTTPSColonSlash {
		return StateInitial, OpMatch
	}
	return s + 1, OpAdvance
}

func (s State) String() string {
	switch s {
	case StateInitial:
		return "INITIAL"
	case StateH:
		return "H"
	case StateHT:
		return "HT"
	case StateHTT:
		return "HTT"
	case StateHTTP:
		return "HTTP"
	case StateHTTPS:
		return "HTTPS"
	case StateHTTPSColon:
		return "HTTPS_COLON"
	case StateHTTPSColonSlash:
		return "HTTPS_COLON_SLASH"
	default:
		return "UNKNOWN"
	}
}

func (o Op) String() string {
	switch o {
	case OpAdvance:
		return "ADVANCE"
	case OpRestart:
		return "RESTART"
	case OpReject:
		return "REJECT"
	case OpMatch:
		return "MATCH"
	default:
		return "UNKNOWN"
	}
}
