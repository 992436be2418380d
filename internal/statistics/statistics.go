package statistics

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"
)

// Outcome describes how one proxied request ended.
type Outcome struct {
	Host             string
	Status           int
	BodyRewritten    bool
	BodyBytes        int
	Replacements     int
	HeadersRewritten int
	Rejected         bool
	ErrKind          string
	Duration         time.Duration
	Finished         time.Time
}

func (o *Outcome) label() string {
	switch {
	case o.Rejected:
		return "rejected"
	case o.ErrKind != "":
		return "error"
	case o.BodyRewritten:
		return "rewritten"
	default:
		return "passthrough"
	}
}

func (o *Outcome) finished() time.Time {
	if o.Finished.IsZero() {
		return time.Now()
	}
	return o.Finished
}

type Recorder struct {
	RewriteRecordList *RewriteRecordList
	ActiveRequestList *ActiveRequestList
	Metrics           *Metrics

	seq atomic.Uint64
}

// NewRecorder builds a recorder whose per-host table is dumped to
// dumpFile. An empty dumpFile disables dumping.
func NewRecorder(dumpFile string) *Recorder {
	r := &Recorder{
		RewriteRecordList: NewRewriteRecordList(dumpFile),
		ActiveRequestList: NewActiveRequestList(),
	}
	r.Metrics = NewMetrics(r)
	return r
}

func (r *Recorder) Start(ctx context.Context) {
	r.RewriteRecordList.Run(ctx)
}

// Begin marks a request active. The returned func records its outcome and
// clears it.
func (r *Recorder) Begin(req *ActiveRequest) func(o *Outcome) {
	if r == nil {
		return func(*Outcome) {}
	}
	if req.ID == "" {
		req.ID = "req-" + strconv.FormatUint(r.seq.Add(1), 10)
	}
	if req.StartTime.IsZero() {
		req.StartTime = time.Now()
	}
	r.ActiveRequestList.Add(req)
	return func(o *Outcome) {
		r.ActiveRequestList.Remove(req.ID)
		if o.Duration == 0 {
			o.Duration = time.Since(req.StartTime)
		}
		r.Record(o)
	}
}

func (r *Recorder) Record(o *Outcome) {
	if r == nil {
		return
	}
	r.Metrics.observe(o)
	r.RewriteRecordList.Enqueue(o)
}
