package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/guadalajara-pos/api/internal/middleware"
)

// ProfileHandler returns the authenticated user's stored profile. The
// capture screen pre-fills client name and phone from it.
type ProfileHandler struct {
	store UserStore
}

func NewProfileHandler(store UserStore) *ProfileHandler {
	return &ProfileHandler{store: store}
}

func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	user, err := h.store.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return
		}
		log.Printf("ERROR: get profile: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Phone: user.Phone,
	})
}
