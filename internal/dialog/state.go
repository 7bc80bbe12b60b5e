package dialog

import "github.com/hamed0406/deviceping/internal/domain"

type Phase int

const (
	Idle Phase = iota
	Loading
	Success
	Error
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// State is a snapshot of the dialog. Result is set only in Success and Err
// only in Error.
type State struct {
	Phase  Phase
	Result *domain.PingResponse
	Err    string
}

func loading() State { return State{Phase: Loading} }

func succeeded(res *domain.PingResponse) State { return State{Phase: Success, Result: res} }

func failed(msg string) State { return State{Phase: Error, Err: msg} }
