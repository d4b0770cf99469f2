package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/guadalajara-pos/api/internal/model"
)

// MenuReader serves resolved catalog views. Satisfied by
// *service.MenuStore.
type MenuReader interface {
	Search(query string, date time.Time) []model.MenuEntry
	Loading() bool
	Err() error
}

// MenuHandler serves the day-resolved, searchable menu.
type MenuHandler struct {
	reader MenuReader
	now    func() time.Time
}

func NewMenuHandler(reader MenuReader) *MenuHandler {
	return &MenuHandler{reader: reader, now: time.Now}
}

func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type menuEntryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
}

type menuListResponse struct {
	Items   []menuEntryResponse `json:"items"`
	Loading bool                `json:"loading"`
	Error   string              `json:"error,omitempty"`
}

// List returns today's catalog, optionally filtered by ?search=.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	entries := h.reader.Search(r.URL.Query().Get("search"), h.now())

	resp := menuListResponse{
		Items:   make([]menuEntryResponse, len(entries)),
		Loading: h.reader.Loading(),
		Error:   errMessage(h.reader.Err()),
	}
	for i, e := range entries {
		resp.Items[i] = menuEntryResponse{
			ID:        e.ID,
			Name:      e.Name,
			UnitPrice: e.UnitPrice.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
