package datarecording

import (
	"context"
	"sync"
	"time"

	"github.com/sarchlab/noclat/estimator"
	"github.com/sarchlab/noclat/hooking"
)

// Tables written by the LatencyRecorder.
const (
	EstimationTable = "estimation"
	LatencyTable    = "latency"
)

// EstimationEntry summarizes one estimation.
type EstimationEntry struct {
	ID             string
	Label          string
	Time           string
	NumRequests    int
	NumChannels    int
	MaxResidualHop int
	MaxLatency     float64
	MeanLatency    float64
}

// LatencyEntry is the latency of one request of an estimation.
type LatencyEntry struct {
	EstimationID string
	Request      int
	Src          int
	Dst          int
	Rate         float64
	Latency      float64
}

// LatencyRecorder is a hook that records every estimation of the estimators
// it is attached to. It is safe for concurrent use.
type LatencyRecorder struct {
	mu       sync.Mutex
	recorder DataRecorder
	label    string
}

// NewLatencyRecorder creates the estimation and latency tables in the
// recorder.
func NewLatencyRecorder(recorder DataRecorder) *LatencyRecorder {
	recorder.CreateTable(EstimationTable, EstimationEntry{})
	recorder.CreateTable(LatencyTable, LatencyEntry{})

	return &LatencyRecorder{recorder: recorder}
}

// WithLabel sets the label attached to the following estimations, such as
// the name of a phase.
func (r *LatencyRecorder) WithLabel(label string) *LatencyRecorder {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.label = label
	return r
}

// Func records the result of an estimation.
func (r *LatencyRecorder) Func(ctx hooking.HookCtx) {
	if ctx.Pos != estimator.HookPosEstimated {
		return
	}

	r.Record(ctx.Item.(*estimator.Result))
}

// Record writes a result.
func (r *LatencyRecorder) Record(result *estimator.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.recorder.InsertData(EstimationTable, EstimationEntry{
		ID:             result.ID,
		Label:          r.label,
		Time:           time.Now().Format(timeFormat),
		NumRequests:    len(result.Latencies),
		NumChannels:    result.NumChannels,
		MaxResidualHop: result.MaxResidualHop,
		MaxLatency:     result.Max(),
		MeanLatency:    result.Mean(),
	})

	for i, l := range result.Latencies {
		entry := LatencyEntry{
			EstimationID: result.ID,
			Request:      i,
			Latency:      l,
		}

		if i < len(result.Requests) {
			entry.Src = result.Requests[i].Src
			entry.Dst = result.Requests[i].Dst
			entry.Rate = result.Requests[i].Rate
		}

		r.recorder.InsertData(LatencyTable, entry)
	}
}

// Flush writes the buffered results into the database.
func (r *LatencyRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.recorder.Flush()
}

// QueryLatencies reads the latencies of one estimation, in request order.
func QueryLatencies(
	ctx context.Context,
	reader *DataReader,
	estimationID string,
) ([]LatencyEntry, error) {
	return Query[LatencyEntry](ctx, reader, LatencyTable, QueryParams{
		Where:   "EstimationID = ?",
		Args:    []any{estimationID},
		OrderBy: "Request ASC",
	})
}

// QueryEstimations reads the summaries of all recorded estimations, oldest
// first.
func QueryEstimations(
	ctx context.Context,
	reader *DataReader,
) ([]EstimationEntry, error) {
	return Query[EstimationEntry](ctx, reader, EstimationTable, QueryParams{
		OrderBy: "rowid ASC",
	})
}
