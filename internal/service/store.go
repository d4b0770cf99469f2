package service

import (
	"sync"

	"github.com/guadalajara-pos/api/internal/codec"
	"github.com/guadalajara-pos/api/internal/docstore"
	"github.com/guadalajara-pos/api/internal/enum"
	"github.com/guadalajara-pos/api/internal/livequery"
	"github.com/guadalajara-pos/api/internal/model"
)

// LifecycleStore is the authoritative local view of orders, partitioned
// by status and rebuilt wholesale from every snapshot delivery. It is
// eventually consistent with respect to writes the coordinator requests:
// a mutation only becomes visible here once the remote store's next
// snapshot carries it. The only writer is the livequery dispatcher
// goroutine; everything else reads.
type LifecycleStore struct {
	mgr *livequery.Manager

	mu            sync.RWMutex
	pending       []model.Order
	pendingByID   map[string]model.Order
	completed     []model.Order
	completedByID map[string]model.Order
	loading       map[string]bool
	errs          map[string]error
	subs          map[string]*livequery.Subscription

	// onSnapshot, when set, is invoked after each applied delivery.
	// Used to push live updates to connected UI clients.
	onSnapshot func(purpose string, orders []model.Order)
}

func NewLifecycleStore(mgr *livequery.Manager) *LifecycleStore {
	return &LifecycleStore{
		mgr:           mgr,
		pendingByID:   make(map[string]model.Order),
		completedByID: make(map[string]model.Order),
		loading:       make(map[string]bool),
		errs:          make(map[string]error),
		subs:          make(map[string]*livequery.Subscription),
	}
}

// OnSnapshot registers the post-apply hook. Must be called before Start.
func (s *LifecycleStore) OnSnapshot(fn func(purpose string, orders []model.Order)) {
	s.onSnapshot = fn
}

// Start installs the pending and completed live queries. Calling Start
// again resubscribes both purposes; the superseded handles' in-flight
// deliveries are dropped by the manager's generation guard.
func (s *LifecycleStore) Start() {
	newestFirst := &docstore.OrderBy{Field: "timestamp", Descending: true}

	s.mu.Lock()
	s.loading[enum.PurposePendingOrders] = true
	s.loading[enum.PurposeCompletedOrders] = true
	s.mu.Unlock()

	s.subs[enum.PurposePendingOrders] = s.mgr.Subscribe(
		enum.PurposePendingOrders,
		enum.CollectionOrders,
		docstore.Query{
			Filters: []docstore.Filter{{Field: "status", Equals: enum.OrderStatusPending}},
			OrderBy: newestFirst,
		},
		func(docs []docstore.Document, err error) {
			s.apply(enum.PurposePendingOrders, docs, err)
		},
	)
	s.subs[enum.PurposeCompletedOrders] = s.mgr.Subscribe(
		enum.PurposeCompletedOrders,
		enum.CollectionOrders,
		docstore.Query{
			Filters: []docstore.Filter{{Field: "status", Equals: enum.OrderStatusCompleted}},
			OrderBy: newestFirst,
		},
		func(docs []docstore.Document, err error) {
			s.apply(enum.PurposeCompletedOrders, docs, err)
		},
	)
}

// Stop cancels both subscriptions. Idempotent.
func (s *LifecycleStore) Stop() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
}

// apply replaces one partition with a freshly delivered snapshot.
// Documents that failed to decode were already dropped by the codec;
// the rest of the snapshot still applies. Insertion order is the order
// delivered by the remote query (newest first).
func (s *LifecycleStore) apply(purpose string, docs []docstore.Document, err error) {
	s.mu.Lock()
	s.loading[purpose] = false
	if err != nil {
		s.errs[purpose] = err
		s.mu.Unlock()
		return
	}
	s.errs[purpose] = nil

	orders := codec.DecodeOrders(docs)
	byID := make(map[string]model.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	switch purpose {
	case enum.PurposePendingOrders:
		s.pending = orders
		s.pendingByID = byID
	case enum.PurposeCompletedOrders:
		s.completed = orders
		s.completedByID = byID
	}
	hook := s.onSnapshot
	s.mu.Unlock()

	if hook != nil {
		hook(purpose, orders)
	}
}

// Pending returns the pending orders in delivered order.
func (s *LifecycleStore) Pending() []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Order, len(s.pending))
	copy(out, s.pending)
	return out
}

// Completed returns the completed orders in delivered order.
func (s *LifecycleStore) Completed() []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Order, len(s.completed))
	copy(out, s.completed)
	return out
}

// Get looks an order up by id across both partitions.
func (s *LifecycleStore) Get(id string) (model.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.pendingByID[id]; ok {
		return o, true
	}
	o, ok := s.completedByID[id]
	return o, ok
}

// OrderStatus reports the last known status of an order id.
func (s *LifecycleStore) OrderStatus(id string) (string, bool) {
	o, ok := s.Get(id)
	if !ok {
		return "", false
	}
	return o.Status, true
}

// Loading is true between Start and the first delivery for a purpose.
func (s *LifecycleStore) Loading(purpose string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading[purpose]
}

// Err returns the retained error for a purpose; a subsequent successful
// delivery clears it.
func (s *LifecycleStore) Err(purpose string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errs[purpose]
}
