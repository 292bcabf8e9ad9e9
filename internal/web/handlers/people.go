package handlers

import (
	"log"
	"net/http"

	"github.com/crewmark/crewmark/internal/store"
)

// PeopleHandler searches the roster by name.
type PeopleHandler struct {
	people store.PersonReader
}

// NewPeopleHandler creates a new people handler.
func NewPeopleHandler(people store.PersonReader) *PeopleHandler {
	return &PeopleHandler{people: people}
}

// Search finds people whose name matches the q parameter, case- and
// diacritic-insensitive.
func (h *PeopleHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "q query parameter is required")
		return
	}

	people, err := h.people.SearchPeople(r.Context(), query)
	if err != nil {
		log.Printf("people: search failed for %q: %v", sanitizeForLog(query), err)
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	items := make([]personResponse, 0, len(people))
	for i := range people {
		items = append(items, *toPersonResponse(&people[i]))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":  len(items),
		"people": items,
	})
}
