package dispatcher

// State is where a subscription is in its lifecycle. Normal, TransportError
// and Interrupted are terminal.
type State int32

const (
	Idle State = iota
	Connected
	Streaming
	Normal
	TransportError
	Interrupted
)

var stateNames = map[State]string{
	Idle:           "idle",
	Connected:      "connected",
	Streaming:      "streaming",
	Normal:         "normal",
	TransportError: "transport_error",
	Interrupted:    "interrupted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s State) Terminal() bool {
	return s == Normal || s == TransportError || s == Interrupted
}
