package statistics

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	maxTrackedHosts = 1024
	dumpInterval    = 5 * time.Second
)

// RewriteRecord aggregates what the proxy did for one origin host.
type RewriteRecord struct {
	Host             string    `json:"host"`
	Requests         int       `json:"requests"`
	BodiesRewritten  int       `json:"bodies_rewritten"`
	Replacements     int       `json:"replacements"`
	HeadersRewritten int       `json:"headers_rewritten"`
	Rejected         int       `json:"rejected"`
	Errors           int       `json:"errors"`
	LastStatus       int       `json:"last_status"`
	LastSeen         time.Time `json:"last_seen"`
}

// RewriteRecordList keeps one record per host. The least recently seen
// host is evicted once maxTrackedHosts is reached.
type RewriteRecordList struct {
	recordAddChan chan *Outcome
	records       *lru.Cache[string, *RewriteRecord]
	mu            sync.Mutex

	dumpFile   string
	dumpWriter *bufio.Writer
}

func NewRewriteRecordList(dumpFile string) *RewriteRecordList {
	records, err := lru.New[string, *RewriteRecord](maxTrackedHosts)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &RewriteRecordList{
		recordAddChan: make(chan *Outcome, 100),
		records:       records,
		dumpFile:      dumpFile,
		dumpWriter:    bufio.NewWriter(nil),
	}
}

// Run applies queued outcomes and dumps the table every dumpInterval until
// ctx is done.
func (l *RewriteRecordList) Run(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(dumpInterval)
		defer ticker.Stop()

		for {
			select {
			case o := <-l.recordAddChan:
				l.Add(o)
			case <-ticker.C:
				l.Dump()
			case <-ctx.Done():
				l.drain()
				l.Dump()
				return
			}
		}
	}()
}

// Enqueue hands o to the Run loop. It never blocks; outcomes are dropped
// when the queue is full.
func (l *RewriteRecordList) Enqueue(o *Outcome) {
	select {
	case l.recordAddChan <- o:
	default:
	}
}

func (l *RewriteRecordList) drain() {
	for {
		select {
		case o := <-l.recordAddChan:
			l.Add(o)
		default:
			return
		}
	}
}

func (l *RewriteRecordList) Add(o *Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.records.Get(o.Host)
	if !ok {
		r = &RewriteRecord{Host: o.Host}
		l.records.Add(o.Host, r)
	}
	r.Requests++
	if o.BodyRewritten {
		r.BodiesRewritten++
	}
	r.Replacements += o.Replacements
	r.HeadersRewritten += o.HeadersRewritten
	if o.Rejected {
		r.Rejected++
	}
	if o.ErrKind != "" {
		r.Errors++
	}
	r.LastStatus = o.Status
	r.LastSeen = o.finished()
}

// Snapshot returns copies of all records, busiest host first.
func (l *RewriteRecordList) Snapshot() []RewriteRecord {
	l.mu.Lock()
	list := make([]RewriteRecord, 0, l.records.Len())
	for _, r := range l.records.Values() {
		list = append(list, *r)
	}
	l.mu.Unlock()

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Requests != list[j].Requests {
			return list[i].Requests > list[j].Requests
		}
		return list[i].Host < list[j].Host
	})
	return list
}

func (l *RewriteRecordList) Len() int {
	return l.records.Len()
}

// Dump writes the snapshot to the dump file, one host per line:
// host requests bodies replacements headers rejected errors last_status.
func (l *RewriteRecordList) Dump() {
	if l.dumpFile == "" {
		return
	}
	f, err := os.Create(l.dumpFile)
	if err != nil {
		slog.Error("os.Create", slog.Any("error", err))
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("os.File.Close", slog.Any("error", err))
		}
	}()

	l.dumpWriter.Reset(f)
	defer func() {
		if err := l.dumpWriter.Flush(); err != nil {
			slog.Error("bufio.Writer.Flush", slog.Any("error", err))
		}
	}()

	for _, r := range l.Snapshot() {
		_, err := fmt.Fprintf(l.dumpWriter, "%s %d %d %d %d %d %d %d\n",
			r.Host, r.Requests, r.BodiesRewritten, r.Replacements, r.HeadersRewritten,
			r.Rejected, r.Errors, r.LastStatus)
		if err != nil {
			slog.Error("Dump fmt.Fprintf", slog.Any("error", err))
			return
		}
	}
}
