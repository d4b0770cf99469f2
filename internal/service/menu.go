package service

import (
	"sync"
	"time"

	"github.com/guadalajara-pos/api/internal/codec"
	"github.com/guadalajara-pos/api/internal/docstore"
	"github.com/guadalajara-pos/api/internal/enum"
	"github.com/guadalajara-pos/api/internal/livequery"
	"github.com/guadalajara-pos/api/internal/menu"
	"github.com/guadalajara-pos/api/internal/model"
)

// MenuStore caches the raw remote catalog and serves resolved views of
// it. Resolution (day specials, sorting) happens per read so the cache
// never depends on the clock.
type MenuStore struct {
	mgr *livequery.Manager

	mu      sync.RWMutex
	catalog []model.MenuEntry
	loading bool
	err     error
	sub     *livequery.Subscription

	onSnapshot func(catalog []model.MenuEntry)
}

func NewMenuStore(mgr *livequery.Manager) *MenuStore {
	return &MenuStore{mgr: mgr}
}

// OnSnapshot registers the post-apply hook. Must be called before Start.
func (s *MenuStore) OnSnapshot(fn func(catalog []model.MenuEntry)) {
	s.onSnapshot = fn
}

// Start installs the menu live query. Resubscribing supersedes the old
// handle.
func (s *MenuStore) Start() {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	s.sub = s.mgr.Subscribe(
		enum.PurposeMenu,
		enum.CollectionMenu,
		docstore.Query{OrderBy: &docstore.OrderBy{Field: "Nombre"}},
		s.apply,
	)
}

// Stop cancels the subscription. Idempotent.
func (s *MenuStore) Stop() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
}

func (s *MenuStore) apply(docs []docstore.Document, err error) {
	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.err = err
		s.mu.Unlock()
		return
	}
	s.err = nil
	s.catalog = codec.DecodeMenu(docs)
	catalog := s.catalog
	hook := s.onSnapshot
	s.mu.Unlock()

	if hook != nil {
		hook(catalog)
	}
}

// Catalog returns the raw fetched catalog, no specials applied.
func (s *MenuStore) Catalog() []model.MenuEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.MenuEntry, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// Resolved returns the display catalog for the given date.
func (s *MenuStore) Resolved(date time.Time) []model.MenuEntry {
	return menu.Resolve(s.Catalog(), date)
}

// Search filters the resolved catalog by case-insensitive substring.
func (s *MenuStore) Search(query string, date time.Time) []model.MenuEntry {
	return menu.Search(s.Resolved(date), query)
}

// Loading is true between Start and the first delivery.
func (s *MenuStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the retained subscription error, cleared by the next
// successful delivery.
func (s *MenuStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}
