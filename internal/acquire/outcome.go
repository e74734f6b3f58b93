package acquire

import "fmt"

// Status is the terminal state of one item's request.
type Status int

const (
	// StatusCompleted means every target was acquired and stored.
	StatusCompleted Status = iota
	// StatusFailed means the provider, post-processing or the cache failed.
	StatusFailed
	// StatusCancelled means the task was cancelled before finishing.
	StatusCancelled
	// StatusCached means the artifacts already existed; nothing was requested.
	StatusCached
	// StatusSkipped means another caller is already driving the item.
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	case StatusCached:
		return "cached"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the terminal report for one item.
type Outcome struct {
	ID     int64
	Status Status
	Err    error
}

// BatchResult summarizes a batch once every item is terminal.
type BatchResult struct {
	Outcomes  []Outcome
	Completed int
	Failed    int
	Cancelled int
	Cached    int
	Skipped   int
}

func (b *BatchResult) add(o Outcome) {
	b.Outcomes = append(b.Outcomes, o)
	switch o.Status {
	case StatusCompleted:
		b.Completed++
	case StatusFailed:
		b.Failed++
	case StatusCancelled:
		b.Cancelled++
	case StatusCached:
		b.Cached++
	case StatusSkipped:
		b.Skipped++
	}
}

func (b BatchResult) String() string {
	return fmt.Sprintf("%d completed, %d cached, %d failed, %d cancelled, %d skipped",
		b.Completed, b.Cached, b.Failed, b.Cancelled, b.Skipped)
}
