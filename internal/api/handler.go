package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"puritygrid-backend/internal/mock"
	"puritygrid-backend/internal/requests"
	"puritygrid-backend/internal/session"
	"puritygrid-backend/internal/store"
	"puritygrid-backend/internal/telemetry"
)

// Deps holds everything the handlers need.
type Deps struct {
	Store         store.Store
	Sessions      *session.Manager
	Authenticator *session.Authenticator
	Requests      *requests.Queue
	Owner         telemetry.Classifier
	Renter        telemetry.Classifier
	Generator     *mock.Generator
	Income        mock.IncomeRange
	MockHistory   bool
	Webpush       *webpush.Options
	Log           zerolog.Logger
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store       store.Store
	sessions    *session.Manager
	auth        *session.Authenticator
	requests    *requests.Queue
	owner       telemetry.Classifier
	renter      telemetry.Classifier
	generator   *mock.Generator
	income      mock.IncomeRange
	mockHistory bool
	webpush     *webpush.Options
	log         zerolog.Logger
	now         func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:       d.Store,
		sessions:    d.Sessions,
		auth:        d.Authenticator,
		requests:    d.Requests,
		owner:       d.Owner,
		renter:      d.Renter,
		generator:   d.Generator,
		income:      d.Income,
		mockHistory: d.MockHistory,
		webpush:     d.Webpush,
		log:         d.Log.With().Str("component", "api").Logger(),
		now:         time.Now,
	}
}

// classifierFor picks the threshold profile of the session's view.
func (h *Handler) classifierFor(s session.Session) telemetry.Classifier {
	if s.IsOwner() {
		return h.owner
	}
	return h.renter
}
