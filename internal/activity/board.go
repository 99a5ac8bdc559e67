package activity

import (
	"sync/atomic"
	"time"
)

// Snapshot is an immutable set of records published together.
type Snapshot struct {
	Records   []Record  `json:"records"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Lookup returns the record for projectID.
func (s *Snapshot) Lookup(projectID string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	for _, r := range s.Records {
		if r.ProjectID == projectID {
			return r, true
		}
	}
	return Record{}, false
}

// Board holds the latest snapshot. Publish swaps the whole snapshot so
// readers on other goroutines never observe a partial update.
type Board struct {
	current atomic.Pointer[Snapshot]
}

// NewBoard returns a board seeded with the fallback counts of projects, so
// overlays have a rate before the first sample completes.
func NewBoard(projects []Project) *Board {
	b := &Board{}
	records := make([]Record, len(projects))
	for i, p := range projects {
		records[i] = Record{ProjectID: p.ID, CommitsPerWeek: p.Fallback, Fallback: true}
	}
	b.current.Store(&Snapshot{Records: records})
	return b
}

// Current returns the latest snapshot. It must not be modified.
func (b *Board) Current() *Snapshot {
	return b.current.Load()
}

// Publish replaces the snapshot with a copy of records.
func (b *Board) Publish(records []Record) *Snapshot {
	cp := make([]Record, len(records))
	copy(cp, records)
	snap := &Snapshot{Records: cp, UpdatedAt: time.Now()}
	b.current.Store(snap)
	return snap
}
