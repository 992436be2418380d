package statistics

import (
	"sort"
	"sync"
	"time"
)

// ActiveRequest is a request currently waiting on its origin.
type ActiveRequest struct {
	ID        string    `json:"id"`
	SrcAddr   string    `json:"src_addr"`
	Method    string    `json:"method"`
	Host      string    `json:"host"`
	URI       string    `json:"uri"`
	StartTime time.Time `json:"start_time"`
}

type ActiveRequestList struct {
	records map[string]*ActiveRequest
	mu      sync.RWMutex
}

func NewActiveRequestList() *ActiveRequestList {
	return &ActiveRequestList{
		records: make(map[string]*ActiveRequest, 64),
	}
}

func (l *ActiveRequestList) Add(record *ActiveRequest) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := *record
	if r.StartTime.IsZero() {
		r.StartTime = time.Now()
	}
	l.records[r.ID] = &r
}

func (l *ActiveRequestList) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, id)
}

func (l *ActiveRequestList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Snapshot lists active requests, newest first.
func (l *ActiveRequestList) Snapshot() []ActiveRequest {
	l.mu.RLock()
	list := make([]ActiveRequest, 0, len(l.records))
	for _, r := range l.records {
		list = append(list, *r)
	}
	l.mu.RUnlock()

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].StartTime.After(list[j].StartTime)
	})
	return list
}
