package sourcewatch

// Status represents the lifecycle state of a watched resource.
//
// Status is a string type that can hold one of the predefined values below.
// Using a string type allows for easy JSON serialization and human-readable
// logging while maintaining type safety through the defined constants.
type Status string

const (
	// StatusPending indicates the resource is awaiting an external action
	// (e.g. user authorization) and may still change state.
	StatusPending Status = "pending"

	// StatusChargeable indicates the resource became ready for use.
	StatusChargeable Status = "chargeable"

	// StatusConsumed indicates the resource has already been used.
	StatusConsumed Status = "consumed"

	// StatusCanceled indicates the resource was canceled before use.
	StatusCanceled Status = "canceled"

	// StatusFailed indicates the external action failed or was declined.
	StatusFailed Status = "failed"

	// StatusUnknown indicates the remote endpoint reported a state this
	// library does not recognize.
	StatusUnknown Status = "unknown"
)

// String returns the string representation of the status.
// This implements the fmt.Stringer interface.
func (s Status) String() string {
	return string(s)
}

// statusFromString maps a wire status onto the known constants, folding
// unrecognized values into StatusUnknown.
func statusFromString(s string) Status {
	switch Status(s) {
	case StatusPending, StatusChargeable, StatusConsumed, StatusCanceled, StatusFailed:
		return Status(s)
	}
	return StatusUnknown
}

// Classifier is a pure function that reports whether a [Status] is terminal,
// i.e. no further change is expected and polling should stop.
//
// The same input must always produce the same output; the classifier is
// consulted once per fetch, on the poller's own goroutine.
type Classifier func(Status) bool

// DefaultClassifier treats [StatusChargeable], [StatusConsumed],
// [StatusCanceled], and [StatusFailed] as terminal. Pending and unknown
// statuses keep polling until the attempt cap is reached.
func DefaultClassifier(s Status) bool {
	switch s {
	case StatusChargeable, StatusConsumed, StatusCanceled, StatusFailed:
		return true
	}
	return false
}
