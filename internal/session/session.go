package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"puritygrid-backend/internal/model"
	"puritygrid-backend/internal/store"
)

// SlotKey is the slot holding every live session.
const SlotKey = "purity_auth"

// Session is an authenticated dashboard login.
type Session struct {
	Token     string    `json:"token"`
	AccountID int64     `json:"account_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsOwner reports whether the session belongs to an owner account.
func (s Session) IsOwner() bool {
	return s.Role == model.RoleOwner
}

// Manager keeps sessions in an expiring in-memory cache and persists the
// full set to a slot on every change, so sessions survive a restart.
type Manager struct {
	mu    sync.Mutex
	cache *cache.Cache
	slots *store.Slots
	ttl   time.Duration
	log   zerolog.Logger
	now   func() time.Time
}

// NewManager creates a manager issuing sessions valid for ttl.
func NewManager(slots *store.Slots, ttl time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		cache: cache.New(ttl, 10*time.Minute),
		slots: slots,
		ttl:   ttl,
		log:   log.With().Str("component", "session").Logger(),
		now:   time.Now,
	}
}

// Load restores the unexpired sessions from the slot. It is called once at
// startup.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var saved []Session
	if _, err := m.slots.Load(ctx, SlotKey, &saved); err != nil {
		return err
	}

	now := m.now()
	restored := 0
	for _, s := range saved {
		remaining := s.ExpiresAt.Sub(now)
		if remaining <= 0 {
			continue
		}
		m.cache.Set(s.Token, s, remaining)
		restored++
	}
	m.log.Info().Int("restored", restored).Int("expired", len(saved)-restored).Msg("sessions loaded")
	return nil
}

// Login opens a session for account.
func (m *Manager) Login(ctx context.Context, account model.Account) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	s := Session{
		Token:     uuid.NewString(),
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	m.cache.Set(s.Token, s, m.ttl)

	if err := m.persist(ctx); err != nil {
		m.cache.Delete(s.Token)
		return Session{}, err
	}
	m.log.Info().Str("username", s.Username).Str("role", s.Role).Msg("session opened")
	return s, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (m *Manager) Logout(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cache.Get(token); !ok {
		return nil
	}
	m.cache.Delete(token)
	return m.persist(ctx)
}

// Lookup returns the live session for token.
func (m *Manager) Lookup(token string) (Session, bool) {
	v, ok := m.cache.Get(token)
	if !ok {
		return Session{}, false
	}
	s := v.(Session)
	if !m.now().Before(s.ExpiresAt) {
		return Session{}, false
	}
	return s, true
}

// persist writes every live session to the slot. Callers hold m.mu.
func (m *Manager) persist(ctx context.Context) error {
	items := m.cache.Items()
	live := make([]Session, 0, len(items))
	for _, item := range items {
		live = append(live, item.Object.(Session))
	}
	sort.Slice(live, func(i, j int) bool { return live[i].CreatedAt.Before(live[j].CreatedAt) })
	return m.slots.Save(ctx, SlotKey, live)
}
