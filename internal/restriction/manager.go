package restriction

import (
	"fmt"
	"sync"
	"time"

	"srcds-admin/internal/crash"
	"srcds-admin/internal/logger"
	"srcds-admin/internal/models"
)

// Store is the persistence contract the manager mutates in the
// background. Each call is assumed transactional on its own; the engine
// never needs multi-statement transactions.
type Store interface {
	// Insert persists a new record and assigns its ID.
	Insert(rec *models.Restriction) error
	// Get returns the record by id, or (nil, nil) when it is gone.
	Get(id uint) (*models.Restriction, error)
	Update(rec *models.Restriction) error
	Delete(id uint) error
	All() ([]*models.Restriction, error)
	Query(filter QueryFilter) ([]*models.Restriction, error)
}

// QueryFilter narrows Store.Query. Nil fields match everything; set
// fields combine conjunctively.
type QueryFilter struct {
	Identifier *string
	IssuedBy   *string
	Reviewed   *bool
	Expired    *bool
	Lifted     *bool
}

type EventAction string

const (
	RecordAdded   EventAction = "record-added"
	RecordUpdated EventAction = "record-updated"
	RecordRemoved EventAction = "record-removed"
)

// Event describes a completed cache/store mutation, pushed to frontends
// so open review pages can update incrementally.
type Event struct {
	Action EventAction         `json:"action"`
	Kind   string              `json:"kind"`
	Record *models.Restriction `json:"record"`
}

type Callback func(Event)

// Notice carries a background outcome (failure or soft no-op) back to
// the issuing admin's session; the background goroutine cannot address
// the admin directly.
type Notice struct {
	AdminID string `json:"admin_id"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type Notifier interface {
	Notify(notice Notice)
}

// Admins are identified by SteamID regardless of the restriction kind.
var issuerNormalizer = SteamIDNormalizer{}

// Manager coordinates one restriction kind: synchronous cache reads on
// the hot path, store mutations on fire-and-forget background
// goroutines, cache reconciliation on completion. Concurrent completions
// for one identifier resolve last-writer-wins.
type Manager struct {
	kind       string
	normalizer Normalizer
	store      Store
	cache      *Cache
	notifier   Notifier

	cbMu      sync.Mutex
	callbacks []Callback

	now      func() time.Time
	dispatch func(name string, fn func())
}

func NewManager(kind string, normalizer Normalizer, store Store, notifier Notifier) *Manager {
	return &Manager{
		kind:       kind,
		normalizer: normalizer,
		store:      store,
		cache:      NewCache(),
		notifier:   notifier,
		now:        time.Now,
		dispatch:   crash.SafeGoroutine,
	}
}

func (m *Manager) Kind() string {
	return m.kind
}

// OnEvent registers a callback invoked after every successful mutation.
func (m *Manager) OnEvent(cb Callback) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

func (m *Manager) emit(event Event) {
	m.cbMu.Lock()
	callbacks := make([]Callback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.Unlock()

	for _, cb := range callbacks {
		cb(event)
	}
}

func (m *Manager) notify(adminID, format string, args ...interface{}) {
	if m.notifier == nil {
		return
	}
	m.notifier.Notify(Notice{
		AdminID: adminID,
		Kind:    m.kind,
		Message: fmt.Sprintf(format, args...),
	})
}

// Refresh clears the cache and reloads every active record from the
// store. Called at startup, never from the hot path.
func (m *Manager) Refresh() error {
	records, err := m.store.All()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	m.cache.Refresh(records)
	logger.Infof("%s: cache refreshed, %d active restrictions", m.kind, m.cache.Len())
	return nil
}

// IsRestricted answers the hot-path membership check. A malformed
// identifier cannot be restricted.
func (m *Manager) IsRestricted(rawIdentifier string) bool {
	key, err := m.normalizer.Normalize(rawIdentifier)
	if err != nil {
		return false
	}
	return m.cache.IsRestricted(key)
}

// GetActive lists cached records, optionally narrowed to one issuing
// admin and/or review state.
func (m *Manager) GetActive(issuedBy string, reviewed *bool) ([]*models.Restriction, error) {
	filter := ActiveFilter{Reviewed: reviewed}
	if issuedBy != "" {
		issuerKey, err := issuerNormalizer.Normalize(issuedBy)
		if err != nil {
			return nil, err
		}
		filter.IssuedBy = issuerKey
	}
	return m.cache.GetActive(filter), nil
}

// Create validates synchronously, inserts a tentative cache entry so the
// restriction is effective immediately, then persists in the background.
// The background task either reconciles the store-assigned id into the
// cache or rolls the tentative entry back on failure.
func (m *Manager) Create(issuedBy, rawIdentifier, subjectName string, duration int64) (*models.Restriction, error) {
	issuerKey, err := issuerNormalizer.Normalize(issuedBy)
	if err != nil {
		return nil, err
	}

	key, err := m.normalizer.Normalize(rawIdentifier)
	if err != nil {
		return nil, err
	}

	if m.cache.IsRestricted(key) {
		return nil, ErrAlreadyRestricted
	}

	rec := models.NewRestriction(key, subjectName, issuerKey, duration, m.now())
	m.cache.Insert(rec)

	m.dispatch(m.kind+"-create", func() {
		stored := rec.Clone()
		if err := m.store.Insert(stored); err != nil {
			m.cache.Remove(key)
			logger.Errorf("%s: failed to persist restriction for %s: %v", m.kind, key, err)
			m.notify(issuerKey, "Failed to save restriction for %s, please retry", key)
			return
		}

		m.cache.Insert(stored)
		logger.Infof("%s: restriction %d saved for %s (issued by %s)", m.kind, stored.ID, key, issuerKey)
		m.emit(Event{Action: RecordAdded, Kind: m.kind, Record: stored.Clone()})
	})

	return rec.Clone(), nil
}

// Review marks the record reviewed with its final reason and recomputes
// the expiry from the review moment. A record that is gone or already
// lifted makes this a soft no-op reported to the admin, not an error.
func (m *Manager) Review(issuedBy string, id uint, reason string, duration int64) error {
	issuerKey, err := issuerNormalizer.Normalize(issuedBy)
	if err != nil {
		return err
	}

	m.dispatch(m.kind+"-review", func() {
		rec, err := m.store.Get(id)
		if err != nil {
			logger.Errorf("%s: failed to load restriction %d for review: %v", m.kind, id, err)
			m.notify(issuerKey, "Failed to review restriction %d, please retry", id)
			return
		}
		if rec == nil || rec.Lifted {
			logger.Infof("%s: review skipped, restriction %d no longer exists", m.kind, id)
			m.notify(issuerKey, "Restriction %d no longer exists", id)
			return
		}

		rec.Reviewed = true
		rec.Reason = reason
		rec.ExpiresAt = models.ExpiryFromDuration(duration, m.now())

		if err := m.store.Update(rec); err != nil {
			logger.Errorf("%s: failed to update restriction %d: %v", m.kind, id, err)
			m.notify(issuerKey, "Failed to review restriction %d, please retry", id)
			return
		}

		m.cache.UpdateByID(rec)
		logger.Infof("%s: restriction %d reviewed by %s: %s", m.kind, id, issuerKey, reason)
		m.emit(Event{Action: RecordUpdated, Kind: m.kind, Record: rec.Clone()})
	})

	return nil
}

// Lift administratively ends the restriction and evicts its cache entry.
// Lifting an already-lifted or removed id is a soft no-op.
func (m *Manager) Lift(issuedBy string, id uint) error {
	issuerKey, err := issuerNormalizer.Normalize(issuedBy)
	if err != nil {
		return err
	}

	m.dispatch(m.kind+"-lift", func() {
		rec, err := m.store.Get(id)
		if err != nil {
			logger.Errorf("%s: failed to load restriction %d for lift: %v", m.kind, id, err)
			m.notify(issuerKey, "Failed to lift restriction %d, please retry", id)
			return
		}
		if rec == nil || rec.Lifted {
			logger.Infof("%s: lift skipped, restriction %d no longer exists", m.kind, id)
			m.notify(issuerKey, "Restriction %d no longer exists", id)
			return
		}

		rec.Lifted = true
		rec.LiftedBy = issuerKey

		if err := m.store.Update(rec); err != nil {
			logger.Errorf("%s: failed to lift restriction %d: %v", m.kind, id, err)
			m.notify(issuerKey, "Failed to lift restriction %d, please retry", id)
			return
		}

		m.cache.Remove(rec.Identifier)
		logger.Infof("%s: restriction %d on %s lifted by %s", m.kind, id, rec.Identifier, issuerKey)
		m.emit(Event{Action: RecordRemoved, Kind: m.kind, Record: rec.Clone()})
	})

	return nil
}

// RemoveErroneous hard-deletes a record from the store. Only records
// that are simultaneously unreviewed, unlifted and expired qualify;
// anything else is refused even if a caller slipped past the query-side
// constraint. No cache mutation: a qualifying record can at worst
// linger as an expired entry, which lazy expiry already reaps.
func (m *Manager) RemoveErroneous(issuedBy string, id uint) error {
	issuerKey, err := issuerNormalizer.Normalize(issuedBy)
	if err != nil {
		return err
	}

	m.dispatch(m.kind+"-remove", func() {
		rec, err := m.store.Get(id)
		if err != nil {
			logger.Errorf("%s: failed to load restriction %d for removal: %v", m.kind, id, err)
			m.notify(issuerKey, "Failed to remove restriction %d, please retry", id)
			return
		}
		if rec == nil {
			logger.Infof("%s: removal skipped, restriction %d no longer exists", m.kind, id)
			m.notify(issuerKey, "Restriction %d no longer exists", id)
			return
		}
		if !rec.Erroneous(m.now()) {
			logger.Warningf("%s: refusing to remove restriction %d: not an erroneous record", m.kind, id)
			m.notify(issuerKey, "Restriction %d is not an erroneous record", id)
			return
		}

		if err := m.store.Delete(id); err != nil {
			logger.Errorf("%s: failed to delete restriction %d: %v", m.kind, id, err)
			m.notify(issuerKey, "Failed to remove restriction %d, please retry", id)
			return
		}

		logger.Infof("%s: erroneous restriction %d removed by %s", m.kind, id, issuerKey)
		m.emit(Event{Action: RecordRemoved, Kind: m.kind, Record: rec.Clone()})
	})

	return nil
}

// GetRecord loads one record from the store regardless of its state.
func (m *Manager) GetRecord(id uint) (*models.Restriction, error) {
	rec, err := m.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// GetAll queries the store directly, including lifted and expired
// history. This is the review/search path, never the hot path.
func (m *Manager) GetAll(filter QueryFilter) ([]*models.Restriction, error) {
	if filter.Identifier != nil {
		key, err := m.normalizer.Normalize(*filter.Identifier)
		if err != nil {
			return nil, err
		}
		filter.Identifier = &key
	}
	if filter.IssuedBy != nil {
		issuerKey, err := issuerNormalizer.Normalize(*filter.IssuedBy)
		if err != nil {
			return nil, err
		}
		filter.IssuedBy = &issuerKey
	}

	records, err := m.store.Query(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return records, nil
}

// Erroneous lists records eligible for RemoveErroneous: unreviewed,
// unlifted and already expired.
func (m *Manager) Erroneous() ([]*models.Restriction, error) {
	no := false
	yes := true
	return m.GetAll(QueryFilter{Reviewed: &no, Lifted: &no, Expired: &yes})
}
