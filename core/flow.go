package core

// FlowState is the state of a page flow step.
type FlowState string

const (
	FlowIdle    FlowState = "idle"
	FlowLoading FlowState = "loading"
	FlowSuccess FlowState = "success"
	FlowError   FlowState = "error"
)

// Outcome is what a page flow reports back: either a navigation target or a
// message for the user.
type Outcome struct {
	State    FlowState `json:"state"`
	Redirect string    `json:"redirect,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// Navigate is a successful outcome that moves the user elsewhere.
func Navigate(to, message string) Outcome {
	return Outcome{State: FlowSuccess, Redirect: to, Message: message}
}

// Fail is an outcome that keeps the user in place and shows a message.
func Fail(message string) Outcome {
	return Outcome{State: FlowError, Message: message}
}
