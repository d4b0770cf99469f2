// Package livequery turns the document store's change notifications into
// live, filtered, ordered snapshot subscriptions. Every delivery carries
// the complete current result set for its query, never a diff.
//
// Each subscription is bound to a purpose (for example "pending_orders"),
// and at most one subscription per purpose is active at a time: a new
// Subscribe for the same purpose supersedes the old handle, and deliveries
// from a superseded generation are dropped even if the fetch was already
// in flight. All handlers run on a single dispatcher goroutine, so store
// state downstream has exactly one writer.
package livequery

import (
	"context"
	"fmt"
	"sync"

	"github.com/guadalajara-pos/api/internal/docstore"
)

// Handler receives snapshot deliveries for one purpose. Exactly one of
// docs/err is meaningful per call; a non-nil err is terminal for the
// subscription (no automatic retry — the owner must resubscribe).
type Handler func(docs []docstore.Document, err error)

// Subscription is the caller's handle on one purpose generation.
// Unsubscribe is idempotent and only cancels its own generation.
type Subscription struct {
	m       *Manager
	purpose string
	gen     uint64
}

// Purpose reports which logical query this handle serves.
func (s *Subscription) Purpose() string { return s.purpose }

// Unsubscribe cancels this handle. Calling it twice, or after the handle
// was superseded by a newer Subscribe, is a no-op.
func (s *Subscription) Unsubscribe() {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	e := s.m.subs[s.purpose]
	if e != nil && e.gen == s.gen {
		delete(s.m.subs, s.purpose)
		e.cancel()
	}
}

type entry struct {
	purpose    string
	collection string
	query      docstore.Query
	handler    Handler
	gen        uint64

	trigger    chan struct{} // capacity 1; coalesces refetch requests
	done       chan struct{}
	cancelOnce sync.Once
}

func (e *entry) cancel() {
	e.cancelOnce.Do(func() { close(e.done) })
}

type delivery struct {
	e    *entry
	docs []docstore.Document
	err  error
}

// Manager owns every live query in the process.
type Manager struct {
	reader  docstore.Reader
	changes <-chan string

	mu      sync.Mutex
	subs    map[string]*entry
	nextGen uint64

	ctx     context.Context
	deliver chan delivery
}

// NewManager builds a manager over a snapshot reader and a stream of
// changed-collection names (the docstore listener). Run must be started
// before the first Subscribe.
func NewManager(reader docstore.Reader, changes <-chan string) *Manager {
	return &Manager{
		reader:  reader,
		changes: changes,
		subs:    make(map[string]*entry),
		nextGen: 1,
		ctx:     context.Background(),
		deliver: make(chan delivery, 16),
	}
}

// Run dispatches deliveries until ctx is cancelled. It is the only
// goroutine that invokes handlers, which is what gives downstream stores
// their single-writer guarantee and per-purpose delivery ordering.
func (m *Manager) Run(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()

	go m.watchChanges(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-m.deliver:
			m.mu.Lock()
			current := m.subs[d.e.purpose] == d.e
			if current && d.err != nil {
				// Terminal failure: drop the entry so later change
				// notifications stop triggering fetches for it.
				delete(m.subs, d.e.purpose)
				d.e.cancel()
			}
			m.mu.Unlock()
			if !current {
				continue // stale generation
			}
			d.e.handler(d.docs, d.err)
		}
	}
}

// watchChanges requests a refetch on every subscription whose collection
// changed. The trigger channel has capacity one, so bursts of changes
// coalesce into a single snapshot fetch.
func (m *Manager) watchChanges(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case collection, ok := <-m.changes:
			if !ok {
				return
			}
			m.mu.Lock()
			for _, e := range m.subs {
				if e.collection == collection {
					select {
					case e.trigger <- struct{}{}:
					default:
					}
				}
			}
			m.mu.Unlock()
		}
	}
}

// Subscribe installs the live query for a purpose, superseding any prior
// subscription for the same purpose. The handler receives an initial
// snapshot, then one snapshot per observed change to the collection.
func (m *Manager) Subscribe(purpose, collection string, q docstore.Query, h Handler) *Subscription {
	e := &entry{
		purpose:    purpose,
		collection: collection,
		query:      q,
		handler:    h,
		trigger:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	e.trigger <- struct{}{} // initial fetch

	m.mu.Lock()
	if old := m.subs[purpose]; old != nil {
		old.cancel()
	}
	e.gen = m.nextGen
	m.nextGen++
	m.subs[purpose] = e
	ctx := m.ctx
	m.mu.Unlock()

	go m.fetchLoop(ctx, e)

	return &Subscription{m: m, purpose: purpose, gen: e.gen}
}

// fetchLoop serializes fetches for one subscription, so deliveries for a
// purpose always reach the dispatcher in fetch order.
func (m *Manager) fetchLoop(ctx context.Context, e *entry) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case <-e.trigger:
		}

		docs, err := m.reader.GetDocuments(ctx, e.collection, e.query)
		if err != nil {
			err = fmt.Errorf("live query %s: %w", e.purpose, err)
		}

		select {
		case m.deliver <- delivery{e: e, docs: docs, err: err}:
		case <-ctx.Done():
			return
		case <-e.done:
			return
		}

		if err != nil {
			return // terminal for this generation
		}
	}
}
