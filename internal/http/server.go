package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/saferides/internal/catalog"
	"github.com/example/saferides/internal/geocode"
	"github.com/example/saferides/internal/identity"
	"github.com/example/saferides/internal/models"
	"github.com/example/saferides/internal/ride"
	"github.com/example/saferides/internal/schedule"
	"github.com/example/saferides/internal/storage"
	"github.com/example/saferides/internal/stream"
)

// Server exposes the ride request workflow over HTTP: one workflow per
// authenticated rider, plus the scheduling sub-flow and live updates.
type Server struct {
	logger    *slog.Logger
	resolver  *geocode.Resolver
	catalog   *catalog.Catalog
	schedules *schedule.Service
	store     storage.Store
	hub       *stream.Hub
	verifier  *identity.Verifier
	auth      *identity.Events
	workflows *registry
	mux       *mux.Router

	unsubscribeAuth func()
}

type Options struct {
	Logger    *slog.Logger
	Resolver  *geocode.Resolver
	Catalog   *catalog.Catalog
	Schedules *schedule.Service
	Store     storage.Store
	Hub       *stream.Hub
	Verifier  *identity.Verifier
	Auth      *identity.Events
	Workflow  ride.Deps
}

func NewServer(o Options) *Server {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	s := &Server{
		logger:    o.Logger,
		resolver:  o.Resolver,
		catalog:   o.Catalog,
		schedules: o.Schedules,
		store:     o.Store,
		hub:       o.Hub,
		verifier:  o.Verifier,
		auth:      o.Auth,
		mux:       mux.NewRouter(),
	}
	s.workflows = newRegistry(func(riderID string) *ride.Workflow {
		w := ride.NewWorkflow(riderID, o.Workflow)
		w.OnChange = func(event string, r *models.RideRequest) {
			if s.hub != nil {
				_ = s.hub.Publish(riderID, stream.Event{Type: event, Data: r})
			}
		}
		return w
	})
	if s.schedules != nil && s.hub != nil {
		s.schedules.OnChange = func(event string, r *models.ScheduledRide) {
			_ = s.hub.Publish(r.RiderID, stream.Event{Type: event, Data: r})
		}
	}
	// a rider signing out drops their in-flight workflow and live stream
	if s.auth != nil {
		s.unsubscribeAuth = s.auth.Subscribe(func(ev identity.Event) {
			if !ev.SignedIn {
				s.workflows.Drop(ev.RiderID)
				if s.hub != nil {
					s.hub.Remove(ev.RiderID)
				}
			}
		})
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.mux.PathPrefix("/api/v1").Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/places/suggest", s.handleSuggest).Methods("GET")
	api.HandleFunc("/options", s.handleOptions).Methods("GET")

	api.HandleFunc("/workflow", s.handleWorkflow).Methods("GET")
	api.HandleFunc("/workflow/origin", s.handleSetOrigin).Methods("POST")
	api.HandleFunc("/workflow/destination", s.handleSetDestination).Methods("POST")
	api.HandleFunc("/workflow/destination", s.handleCancel).Methods("DELETE")
	api.HandleFunc("/workflow/waypoints", s.handleAddWaypoint).Methods("POST")
	api.HandleFunc("/workflow/option", s.handleSelectOption).Methods("POST")
	api.HandleFunc("/workflow/price", s.handleNamePrice).Methods("POST")
	api.HandleFunc("/workflow/submit", s.handleSubmit).Methods("POST")
	api.HandleFunc("/workflow/payment", s.handleSelectPayment).Methods("POST")
	api.HandleFunc("/workflow/cancel", s.handleCancel).Methods("POST")

	api.HandleFunc("/scheduled", s.handleProposeSchedule).Methods("POST")
	api.HandleFunc("/scheduled", s.handleListScheduled).Methods("GET")
	api.HandleFunc("/scheduled/{id}", s.handleCancelScheduled).Methods("DELETE")

	api.HandleFunc("/trips", s.handleTrips).Methods("GET")
	api.HandleFunc("/session/logout", s.handleLogout).Methods("POST")

	s.mux.HandleFunc("/ws", s.handleWS).Methods("GET")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

// Close releases the auth subscription.
func (s *Server) Close() {
	if s.unsubscribeAuth != nil {
		s.unsubscribeAuth()
	}
}
