package campaign

import (
	"fmt"
	"sync"
	"time"
)

// Committer turns store transitions into durable writes. Save and Delete
// return immediately; the write happens in the background. Flush blocks
// until every write issued so far has finished.
type Committer interface {
	Save(c Campaign)
	Delete(id string)
	Flush()

	// Failures drains the write failures recorded since the last call.
	Failures() []CommitFailure
}

// CommitFailure records a background write that did not reach the backend.
// The in-memory state is not rolled back when this happens.
type CommitFailure struct {
	CampaignID string
	Op         string // "save" or "delete"
	Err        error
	At         time.Time
}

func (f CommitFailure) Error() string {
	return fmt.Sprintf("%s campaign %s: %v", f.Op, f.CampaignID, f.Err)
}

func (f CommitFailure) Unwrap() error { return f.Err }

// failureLog is the failure bookkeeping shared by both committers.
type failureLog struct {
	mu       sync.Mutex
	failures []CommitFailure
	logger   Logger
	clock    Clock
}

func (l *failureLog) record(id, op string, err error) {
	l.logger.Error("persistence commit failed", "campaign", id, "op", op, "error", err)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = append(l.failures, CommitFailure{
		CampaignID: id,
		Op:         op,
		Err:        fmt.Errorf("%w: %w", ErrPersistence, err),
		At:         l.clock.Now(),
	})
}

func (l *failureLog) drain() []CommitFailure {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.failures
	l.failures = nil
	return out
}

// DetachedCommitter starts one goroutine per write. Writes to the same
// campaign are not ordered relative to each other: if a later write finishes
// before an earlier one, the backend keeps the older state until the next
// mutation commits again. That is an accepted property for a single-user
// tool; use QueuedCommitter to rule it out.
type DetachedCommitter struct {
	backend Backend
	logger  Logger
	wg      sync.WaitGroup
	log     failureLog
}

var _ Committer = (*DetachedCommitter)(nil)

// NewDetachedCommitter creates a DetachedCommitter writing to backend.
func NewDetachedCommitter(backend Backend, logger Logger, clock Clock) *DetachedCommitter {
	return &DetachedCommitter{
		backend: backend,
		logger:  logger,
		log:     failureLog{logger: logger, clock: clock},
	}
}

func (d *DetachedCommitter) Save(c Campaign) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.backend.Save(c); err != nil {
			d.log.record(c.ID, "save", err)
			return
		}
		d.logger.Debug("campaign saved", "campaign", c.ID)
	}()
}

func (d *DetachedCommitter) Delete(id string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.backend.Delete(id); err != nil {
			d.log.record(id, "delete", err)
			return
		}
		d.logger.Debug("campaign removed from storage", "campaign", id)
	}()
}

func (d *DetachedCommitter) Flush()                    { d.wg.Wait() }
func (d *DetachedCommitter) Failures() []CommitFailure { return d.log.drain() }

// QueuedCommitter allows one in-flight write per campaign. A write issued
// while another is running waits; if a newer write arrives before the waiting
// one starts, the waiting one is dropped, since the newer state supersedes it.
type QueuedCommitter struct {
	backend Backend
	logger  Logger
	wg      sync.WaitGroup
	log     failureLog

	mu    sync.Mutex
	lanes map[string]*commitLane
}

var _ Committer = (*QueuedCommitter)(nil)

type commitLane struct {
	pending *queuedWrite
}

type queuedWrite struct {
	delete   bool
	campaign Campaign
}

// NewQueuedCommitter creates a QueuedCommitter writing to backend.
func NewQueuedCommitter(backend Backend, logger Logger, clock Clock) *QueuedCommitter {
	return &QueuedCommitter{
		backend: backend,
		logger:  logger,
		log:     failureLog{logger: logger, clock: clock},
		lanes:   make(map[string]*commitLane),
	}
}

func (q *QueuedCommitter) Save(c Campaign) { q.enqueue(c.ID, queuedWrite{campaign: c}) }
func (q *QueuedCommitter) Delete(id string) {
	q.enqueue(id, queuedWrite{delete: true, campaign: Campaign{ID: id}})
}

func (q *QueuedCommitter) Flush()                    { q.wg.Wait() }
func (q *QueuedCommitter) Failures() []CommitFailure { return q.log.drain() }

func (q *QueuedCommitter) enqueue(id string, w queuedWrite) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if lane, running := q.lanes[id]; running {
		if lane.pending != nil {
			q.logger.Debug("queued write superseded", "campaign", id)
		}
		lane.pending = &w
		return
	}

	lane := &commitLane{}
	q.lanes[id] = lane
	q.wg.Add(1)
	go q.drain(id, lane, w)
}

// drain runs writes for one campaign until its lane is empty.
func (q *QueuedCommitter) drain(id string, lane *commitLane, w queuedWrite) {
	defer q.wg.Done()
	for {
		q.apply(id, w)

		q.mu.Lock()
		if lane.pending == nil {
			delete(q.lanes, id)
			q.mu.Unlock()
			return
		}
		w = *lane.pending
		lane.pending = nil
		q.mu.Unlock()
	}
}

func (q *QueuedCommitter) apply(id string, w queuedWrite) {
	if w.delete {
		if err := q.backend.Delete(id); err != nil {
			q.log.record(id, "delete", err)
		}
		return
	}
	if err := q.backend.Save(w.campaign); err != nil {
		q.log.record(id, "save", err)
		return
	}
	q.logger.Debug("campaign saved", "campaign", id)
}
