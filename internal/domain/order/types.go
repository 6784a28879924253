package order

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFulfilled Status = "FULFILLED"
	// Reserved for the surrounding cancellation flow; the fulfillment
	// pipeline itself never reaches it.
	StatusCancelled Status = "CANCELLED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusFulfilled, StatusCancelled:
		return true
	default:
		return false
	}
}

type HistoryEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// History is the append-only audit log of status transitions. Append returns
// a new slice; entries are never mutated in place.
type History []HistoryEntry

func (h History) Append(status Status, ts time.Time, note string) History {
	if n := len(h); n > 0 && !ts.After(h[n-1].Timestamp) {
		ts = h[n-1].Timestamp.Add(time.Microsecond)
	}
	next := make(History, len(h), len(h)+1)
	copy(next, h)
	return append(next, HistoryEntry{Status: status, Timestamp: ts, Note: note})
}

func (h History) Last() (HistoryEntry, bool) {
	if len(h) == 0 {
		return HistoryEntry{}, false
	}
	return h[len(h)-1], true
}
