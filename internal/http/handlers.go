package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/saferides/internal/identity"
	"github.com/example/saferides/internal/models"
)

// placeInput lets clients send either a pre-resolved suggestion or free
// text; free text goes through the resolver.
type placeInput struct {
	Place *models.Suggestion `json:"place,omitempty"`
	Query string             `json:"query,omitempty"`
}

func (s *Server) resolvePlace(r *http.Request, in placeInput) (models.Place, error) {
	if in.Place != nil {
		return s.resolver.ResolveSuggestion(*in.Place)
	}
	return s.resolver.ResolveQuery(r.Context(), in.Query)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	out, err := s.resolver.Suggest(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": out})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"options": s.catalog.List()})
}

func (s *Server) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	wf := s.workflows.Get(riderIDFromContext(r.Context()))
	writeJSON(w, http.StatusOK, wf.Snapshot())
}

func (s *Server) handleSetOrigin(w http.ResponseWriter, r *http.Request) {
	var in placeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := s.resolvePlace(r, in)
	if err != nil {
		writeError(w, err)
		return
	}
	wf := s.workflows.Get(riderIDFromContext(r.Context()))
	if err := wf.SetOrigin(p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf.Snapshot())
}

func (s *Server) handleSetDestination(w http.ResponseWriter, r *http.Request) {
	var in placeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := s.resolvePlace(r, in)
	if err != nil {
		writeError(w, err)
		return
	}
	wf := s.workflows.Get(riderIDFromContext(r.Context()))
	if err := wf.SetDestination(p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf.Snapshot())
}

func (s *Server) handleAddWaypoint(w http.ResponseWriter, r *http.Request) {
	var in placeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := s.resolvePlace(r, in)
	if err != nil {
		writeError(w, err)
		return
	}
	wf := s.workflows.Get(riderIDFromContext(r.Context()))
	if err := wf.AddWaypoint(p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf.Snapshot())
}

func (s *Server) handleSelectOption(w http.ResponseWriter, r *http.Request) {
	var in struct {
		OptionID    string `json:"option_id"`
		AmountCents int64  `json:"amount_cents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	wf := s.workflows.Get(riderIDFromContext(r.Context()))
	if err := wf.SelectOption(in.OptionID, in.AmountCents); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf.Snapshot())
}

func (s *Server) handleNamePrice(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AmountCents int64 `json:"amount_cents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	wf := s.workflows.Get(riderIDFromContext(r.Context()))
	if err := wf.NamePrice(in.AmountCents); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf.Snapshot())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	wf := s.workflows.Get(riderIDFromContext(r.Context()))
	if err := wf.Submit(r.Context()); err != nil {
		// submission is not rolled back on a collaborator failure; the
		// snapshot still reflects the applied transition
		if errors.Is(err, models.ErrExternalUnavailable) {
			writeJSON(w, http.StatusAccepted, map[string]any{
				"warning":  err.Error(),
				"workflow": wf.Snapshot(),
			})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf.Snapshot())
}

func (s *Server) handleSelectPayment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Method string              `json:"method"`
		Shares []models.SplitShare `json:"shares"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	wf := s.workflows.Get(riderIDFromContext(r.Context()))
	if err := wf.SelectPayment(r.Context(), in.Method, in.Shares); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf.Snapshot())
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	wf := s.workflows.Get(riderIDFromContext(r.Context()))
	if err := wf.Cancel(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf.Snapshot())
}

func (s *Server) handleProposeSchedule(w http.ResponseWriter, r *http.Request) {
	var in struct {
		placeInput
		At time.Time `json:"at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := s.resolvePlace(r, in.placeInput)
	if err != nil {
		writeError(w, err)
		return
	}
	ride, err := s.schedules.Propose(r.Context(), riderIDFromContext(r.Context()), p, in.At)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ride)
}

func (s *Server) handleListScheduled(w http.ResponseWriter, r *http.Request) {
	status := models.ScheduleStatus(r.URL.Query().Get("status"))
	rides, err := s.schedules.List(r.Context(), riderIDFromContext(r.Context()), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scheduled": rides})
}

func (s *Server) handleCancelScheduled(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ride, err := s.schedules.Cancel(r.Context(), riderIDFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ride)
}

func (s *Server) handleTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.store.ListRides(r.Context(), riderIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trips": trips})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.auth != nil {
		s.auth.Publish(identity.Event{RiderID: riderIDFromContext(r.Context()), SignedIn: false})
	}
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{}

// handleWS authenticates via a token query param (browsers cannot set
// headers on WebSocket dials) and registers the rider for live updates.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	riderID, err := s.verifier.RiderID(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}
	s.hub.Add(riderID, conn)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.Detach(riderID, conn)
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), map[string]string{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrInvalidTime):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrPreconditionFailed), errors.Is(err, models.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, models.ErrExternalUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, identity.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
