package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"puritygrid-backend/internal/store"
)

// SlotKey is the slot holding the whole queue as one JSON array.
const SlotKey = "rentalRequests"

var (
	// ErrAlreadyDecided is returned when a request already left pending.
	ErrAlreadyDecided = errors.New("request already decided")
	// ErrInvalidStatus is returned for a target status other than accepted or rejected.
	ErrInvalidStatus = errors.New("invalid request status")
	// ErrInvalidRequest is returned when a new request lacks a required field.
	ErrInvalidRequest = errors.New("invalid rental request")
)

// Status is the lifecycle state of a rental request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// RentalRequest is a renter's request for a purifier.
type RentalRequest struct {
	ID        string    `json:"id"`
	Username  string    `json:"username,omitempty"` // requesting account
	UserName  string    `json:"userName"`
	UserEmail string    `json:"userEmail"`
	UserPhone string    `json:"userPhone"`
	Model     string    `json:"model"`
	Location  string    `json:"location"`
	Status    Status    `json:"status"`
	Date      time.Time `json:"date"`
	Extra     string    `json:"extra,omitempty"`
}

// NewRequest is the caller-supplied part of a rental request.
type NewRequest struct {
	Username  string
	UserName  string
	UserEmail string
	UserPhone string
	Model     string
	Location  string
	Extra     string
}

// Queue is the rental request queue, newest first, persisted in a slot.
type Queue struct {
	mu    sync.Mutex
	slots *store.Slots
	log   zerolog.Logger
	now   func() time.Time
}

// NewQueue creates a queue over slots.
func NewQueue(slots *store.Slots, log zerolog.Logger) *Queue {
	return &Queue{
		slots: slots,
		log:   log.With().Str("component", "requests").Logger(),
		now:   time.Now,
	}
}

// Add stores a new pending request at the front of the queue.
func (q *Queue) Add(ctx context.Context, req NewRequest) (RentalRequest, error) {
	if strings.TrimSpace(req.UserName) == "" || strings.TrimSpace(req.Model) == "" || strings.TrimSpace(req.Location) == "" {
		return RentalRequest{}, fmt.Errorf("%w: name, model and location are required", ErrInvalidRequest)
	}

	now := q.now().UTC()
	created := RentalRequest{
		ID:        fmt.Sprintf("REQ-%d-%s", now.UnixMilli(), uuid.NewString()[:8]),
		Username:  req.Username,
		UserName:  strings.TrimSpace(req.UserName),
		UserEmail: strings.TrimSpace(req.UserEmail),
		UserPhone: strings.TrimSpace(req.UserPhone),
		Model:     strings.TrimSpace(req.Model),
		Location:  strings.TrimSpace(req.Location),
		Status:    StatusPending,
		Date:      now,
		Extra:     req.Extra,
	}

	err := q.update(ctx, func(all []RentalRequest) ([]RentalRequest, error) {
		return append([]RentalRequest{created}, all...), nil
	})
	if err != nil {
		return RentalRequest{}, err
	}

	q.log.Info().Str("request_id", created.ID).Str("model", created.Model).Msg("rental request added")
	return created, nil
}

// List returns every request, newest first.
func (q *Queue) List(ctx context.Context) ([]RentalRequest, error) {
	var all []RentalRequest
	if _, err := q.slots.Load(ctx, SlotKey, &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = []RentalRequest{}
	}
	return all, nil
}

// ListBy returns the requests made by one account, newest first.
func (q *Queue) ListBy(ctx context.Context, username string) ([]RentalRequest, error) {
	all, err := q.List(ctx)
	if err != nil {
		return nil, err
	}
	own := make([]RentalRequest, 0, len(all))
	for _, r := range all {
		if r.Username == username {
			own = append(own, r)
		}
	}
	return own, nil
}

// UpdateStatus decides a pending request. An unknown id is a no-op and
// returns nil. Only one decision per request succeeds; later ones fail
// with ErrAlreadyDecided and leave the record unchanged.
func (q *Queue) UpdateStatus(ctx context.Context, id string, status Status) (*RentalRequest, error) {
	if status != StatusAccepted && status != StatusRejected {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var updated *RentalRequest
	err := q.update(ctx, func(all []RentalRequest) ([]RentalRequest, error) {
		for i := range all {
			if all[i].ID != id {
				continue
			}
			if all[i].Status != StatusPending {
				return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyDecided, id, all[i].Status)
			}
			all[i].Status = status
			r := all[i]
			updated = &r
			return all, nil
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	if updated != nil {
		q.log.Info().Str("request_id", id).Str("status", string(status)).Msg("rental request decided")
	}
	return updated, nil
}

// update runs a read-modify-write of the queue. A nil result from fn
// leaves the slot untouched.
func (q *Queue) update(ctx context.Context, fn func([]RentalRequest) ([]RentalRequest, error)) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.slots.Transaction(ctx, func(tx *store.Slots) error {
		var all []RentalRequest
		if _, err := tx.Load(ctx, SlotKey, &all); err != nil {
			return err
		}
		next, err := fn(all)
		if err != nil || next == nil {
			return err
		}
		return tx.Save(ctx, SlotKey, next)
	})
}
