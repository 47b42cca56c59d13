package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar tracks how many steps of a long-running job, such as the
// epochs of a mapping run, are finished. It is safe for concurrent use.
type ProgressBar struct {
	lock      sync.Mutex
	id        string
	name      string
	startTime time.Time
	total     uint64
	finished  uint64
}

// ProgressStatus is a point-in-time copy of a ProgressBar.
type ProgressStatus struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	StartTime time.Time     `json:"start_time"`
	Elapsed   time.Duration `json:"elapsed"`
	Total     uint64        `json:"total"`
	Finished  uint64        `json:"finished"`
}

// SetTotal changes the number of steps of the job.
func (b *ProgressBar) SetTotal(total uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.total = total
}

// IncrementFinished marks a number of steps as finished. The finished count
// never goes beyond a non-zero total.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.finished += amount
	if b.total > 0 && b.finished > b.total {
		b.finished = b.total
	}
}

// Status returns the current state of the bar.
func (b *ProgressBar) Status() ProgressStatus {
	b.lock.Lock()
	defer b.lock.Unlock()

	return ProgressStatus{
		ID:        b.id,
		Name:      b.name,
		StartTime: b.startTime,
		Elapsed:   time.Since(b.startTime),
		Total:     b.total,
		Finished:  b.finished,
	}
}
