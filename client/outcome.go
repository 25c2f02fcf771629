package client

// Outcome is the final state of a call.
type Outcome int

const (
	Completed Outcome = iota + 1
	RemoteError
	Canceled
	ConnectionClosed
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case RemoteError:
		return "remote-error"
	case Canceled:
		return "canceled"
	case ConnectionClosed:
		return "connection-closed"
	case Failed:
		return "failed"
	}
	return "unknown"
}
