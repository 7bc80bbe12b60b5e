package probe

// TransportError is returned for any failed call to the ping API.
// StatusCode is 0 when no HTTP response was received.
type TransportError struct {
	StatusCode int
	Message    string // "message" field of the error body, if any
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIMessage is the server-supplied message, empty when there was none.
func (e *TransportError) APIMessage() string { return e.Message }
