package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-rules/internal/entity"
)

// EntityView is the JSON form of an entity.
type EntityView struct {
	Name       string         `json:"name"`
	Topic      string         `json:"topic,omitempty"`
	Attributes map[string]any `json:"attributes"`
	UpdatedAt  *time.Time     `json:"updated_at,omitempty"`
}

// RESTFieldView is the JSON form of one cached REST value.
type RESTFieldView struct {
	Source     string  `json:"source"`
	Field      string  `json:"field"`
	Value      any     `json:"value"`
	AgeSeconds float64 `json:"age_seconds"`
}

func entityView(e *entity.Entity) EntityView {
	v := EntityView{
		Name:       e.Name(),
		Topic:      e.Topic(),
		Attributes: e.Attributes(),
	}
	if at := e.UpdatedAt(); !at.IsZero() {
		at = at.UTC()
		v.UpdatedAt = &at
	}
	return v
}

// handleListEntities returns every entity with its current attributes.
func (s *Server) handleListEntities(w http.ResponseWriter, _ *http.Request) {
	list := s.entities.List()
	out := make([]EntityView, 0, len(list))
	for _, e := range list {
		out = append(out, entityView(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entities": out,
		"count":    len(out),
	})
}

// handleGetEntity returns one entity.
func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	e, ok := s.entities.Get(chi.URLParam(r, "name"))
	if !ok {
		writeNotFound(w, "entity not found")
		return
	}
	writeJSON(w, http.StatusOK, entityView(e))
}

// handleRESTSnapshot returns every cached REST value grouped by source.
func (s *Server) handleRESTSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleGetRESTField returns one cached REST value and how old it is.
func (s *Server) handleGetRESTField(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	field := chi.URLParam(r, "field")

	value, ok := s.store.Get(source, field)
	if !ok {
		writeNotFound(w, "REST field not fetched")
		return
	}
	age, _ := s.store.Age(source, field)

	writeJSON(w, http.StatusOK, RESTFieldView{
		Source:     source,
		Field:      field,
		Value:      value,
		AgeSeconds: age.Seconds(),
	})
}
