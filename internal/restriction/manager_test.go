package restriction

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srcds-admin/internal/models"
)

const (
	admin1   = "76561197960265737"
	admin2   = "76561197960265738"
	subject1 = "76561198000000000"
	subject2 = "76561198000000001"
)

type fakeStore struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint]*models.Restriction

	failInsert bool
	failGet    bool
	failUpdate bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[uint]*models.Restriction{}}
}

func (s *fakeStore) Insert(rec *models.Restriction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert {
		return errors.New("injected insert failure")
	}
	s.nextID++
	rec.ID = s.nextID
	s.records[rec.ID] = rec.Clone()
	return nil
}

func (s *fakeStore) Get(id uint) (*models.Restriction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return nil, errors.New("injected get failure")
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

func (s *fakeStore) Update(rec *models.Restriction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate {
		return errors.New("injected update failure")
	}
	s.records[rec.ID] = rec.Clone()
	return nil
}

func (s *fakeStore) Delete(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *fakeStore) All() ([]*models.Restriction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]*models.Restriction, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec.Clone())
	}
	return records, nil
}

func (s *fakeStore) Query(filter QueryFilter) ([]*models.Restriction, error) {
	// The fake only supports the erroneous-listing combination; real
	// filter translation is covered by the repository tests.
	all, _ := s.All()
	return all, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *fakeNotifier) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

func newTestManager(store Store) (*Manager, *testClock, *fakeNotifier) {
	clock := newTestClock()
	notifier := &fakeNotifier{}

	m := NewManager("ban_steamid", SteamIDNormalizer{}, store, notifier)
	m.now = clock.now
	m.cache.now = clock.now
	m.dispatch = func(name string, fn func()) { fn() }

	return m, clock, notifier
}

func TestCreateOptimisticVisibility(t *testing.T) {
	store := newFakeStore()
	m, _, _ := newTestManager(store)

	// Hold background completions so the pre-durability window is observable
	var pending []func()
	m.dispatch = func(name string, fn func()) { pending = append(pending, fn) }

	rec, err := m.Create(admin1, subject1, "Player", 600)
	require.NoError(t, err)
	assert.Zero(t, rec.ID)

	// Restricted immediately, before the store write completed
	assert.True(t, m.IsRestricted(subject1))

	for _, fn := range pending {
		fn()
	}

	// Store id reconciled into the cache after completion
	active, err := m.GetActive("", nil)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, uint(1), active[0].ID)
	assert.True(t, m.IsRestricted(subject1))
}

func TestCreateInvalidIdentifier(t *testing.T) {
	store := newFakeStore()
	m, _, _ := newTestManager(store)

	_, err := m.Create(admin1, "not-a-steamid", "Player", 600)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	assert.Empty(t, store.records)
	assert.Equal(t, 0, m.cache.Len())

	_, err = m.Create("bad-admin", subject1, "Player", 600)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestCreateAlreadyRestricted(t *testing.T) {
	m, _, _ := newTestManager(newFakeStore())

	_, err := m.Create(admin1, subject1, "Player", 600)
	require.NoError(t, err)

	_, err = m.Create(admin2, subject1, "Player", 600)
	assert.ErrorIs(t, err, ErrAlreadyRestricted)

	// Same account in a different rendition is still one identifier
	_, err = m.Create(admin2, "[U:1:39734272]", "Player", 600)
	assert.ErrorIs(t, err, ErrAlreadyRestricted)
}

func TestCreateRollbackOnStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failInsert = true
	m, _, notifier := newTestManager(store)

	_, err := m.Create(admin1, subject1, "Player", 600)
	require.NoError(t, err)

	// The tentative entry was rolled back, and the admin was notified
	assert.False(t, m.IsRestricted(subject1))
	assert.Equal(t, 1, notifier.count())
	assert.Empty(t, store.records)
}

func TestCreateNormalizesIssuer(t *testing.T) {
	store := newFakeStore()
	m, _, _ := newTestManager(store)

	_, err := m.Create("STEAM_0:1:4", subject1, "Player", 600)
	require.NoError(t, err)

	rec, err := store.Get(1)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, admin1, rec.IssuedBy)
}

func TestPermanentRestriction(t *testing.T) {
	m, clock, _ := newTestManager(newFakeStore())

	_, err := m.Create(admin1, subject1, "Player", -1)
	require.NoError(t, err)

	active, err := m.GetActive("", nil)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, models.PermanentExpiry, active[0].ExpiresAt)
	assert.False(t, active[0].Reviewed)

	clock.advance(100 * 365 * 24 * 3600)
	assert.True(t, m.IsRestricted(subject1))
}

func TestTimedRestrictionExpires(t *testing.T) {
	m, clock, _ := newTestManager(newFakeStore())

	_, err := m.Create(admin1, subject1, "Player", 10)
	require.NoError(t, err)

	clock.advance(5)
	assert.True(t, m.IsRestricted(subject1))

	clock.advance(6)
	assert.False(t, m.IsRestricted(subject1))

	active, err := m.GetActive("", nil)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestReviewSemantics(t *testing.T) {
	store := newFakeStore()
	m, _, _ := newTestManager(store)

	created, err := m.Create(admin1, subject1, "Player", 600)
	require.NoError(t, err)

	require.NoError(t, m.Review(admin1, 1, "abuse", -1))

	rec, err := store.Get(1)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Reviewed)
	assert.Equal(t, "abuse", rec.Reason)
	assert.Equal(t, models.PermanentExpiry, rec.ExpiresAt)

	// Review never changes identity
	assert.Equal(t, created.Identifier, rec.Identifier)
	assert.Equal(t, uint(1), rec.ID)

	// Cache entry updated in place
	active, err := m.GetActive("", nil)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].Reviewed)
	assert.Equal(t, "abuse", active[0].Reason)
	assert.Equal(t, models.PermanentExpiry, active[0].ExpiresAt)
}

func TestReviewResetsClockFromNow(t *testing.T) {
	store := newFakeStore()
	m, clock, _ := newTestManager(store)

	_, err := m.Create(admin1, subject1, "Player", 600)
	require.NoError(t, err)

	clock.advance(500)
	require.NoError(t, m.Review(admin1, 1, "abuse", 600))

	rec, err := store.Get(1)
	require.NoError(t, err)
	// Expiry counts from the review moment, not the original ban moment
	assert.Equal(t, clock.now().Unix()+600, rec.ExpiresAt)
}

func TestReviewMissingIDIsSoftNoOp(t *testing.T) {
	m, _, notifier := newTestManager(newFakeStore())

	require.NoError(t, m.Review(admin1, 42, "abuse", 600))
	assert.Equal(t, 1, notifier.count())
}

func TestLift(t *testing.T) {
	store := newFakeStore()
	m, _, _ := newTestManager(store)

	_, err := m.Create(admin1, subject1, "Player", -1)
	require.NoError(t, err)
	require.True(t, m.IsRestricted(subject1))

	require.NoError(t, m.Lift(admin2, 1))

	assert.False(t, m.IsRestricted(subject1))
	active, err := m.GetActive("", nil)
	require.NoError(t, err)
	assert.Empty(t, active)

	rec, err := store.Get(1)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Lifted)
	assert.Equal(t, admin2, rec.LiftedBy)
}

func TestLiftTwiceIsSoftNoOp(t *testing.T) {
	store := newFakeStore()
	m, _, notifier := newTestManager(store)

	_, err := m.Create(admin1, subject1, "Player", -1)
	require.NoError(t, err)

	require.NoError(t, m.Lift(admin1, 1))
	require.NoError(t, m.Lift(admin2, 1))

	// Second lift changed nothing and raised nothing
	rec, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, admin1, rec.LiftedBy)
	assert.Equal(t, 1, notifier.count())
}

func TestRemoveErroneous(t *testing.T) {
	store := newFakeStore()
	m, clock, _ := newTestManager(store)

	_, err := m.Create(admin1, subject1, "Player", 10)
	require.NoError(t, err)

	clock.advance(11)
	require.NoError(t, m.RemoveErroneous(admin1, 1))

	rec, err := store.Get(1)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRemoveErroneousRefusesActiveRecord(t *testing.T) {
	store := newFakeStore()
	m, _, notifier := newTestManager(store)

	_, err := m.Create(admin1, subject1, "Player", -1)
	require.NoError(t, err)

	require.NoError(t, m.RemoveErroneous(admin1, 1))

	// Still there: the record is active, not erroneous
	rec, err := store.Get(1)
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, 1, notifier.count())
}

func TestRemoveErroneousRefusesReviewedRecord(t *testing.T) {
	store := newFakeStore()
	m, clock, _ := newTestManager(store)

	_, err := m.Create(admin1, subject1, "Player", 10)
	require.NoError(t, err)
	require.NoError(t, m.Review(admin1, 1, "abuse", 10))

	clock.advance(11)
	require.NoError(t, m.RemoveErroneous(admin1, 1))

	rec, err := store.Get(1)
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestRefreshRoundTrip(t *testing.T) {
	store := newFakeStore()
	m, clock, _ := newTestManager(store)

	_, err := m.Create(admin1, subject1, "A", -1) // id 1: permanent, survives
	require.NoError(t, err)
	_, err = m.Create(admin1, subject2, "B", 10) // id 2: expires
	require.NoError(t, err)
	_, err = m.Create(admin2, "76561198000000002", "C", -1) // id 3: lifted
	require.NoError(t, err)
	require.NoError(t, m.Lift(admin2, 3))

	clock.advance(11)
	require.NoError(t, m.Refresh())

	// Exactly the not-lifted, not-expired set comes back
	active, err := m.GetActive("", nil)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, uint(1), active[0].ID)

	assert.True(t, m.IsRestricted(subject1))
	assert.False(t, m.IsRestricted(subject2))
	assert.False(t, m.IsRestricted("76561198000000002"))
}

func TestGetActiveByIssuer(t *testing.T) {
	m, _, _ := newTestManager(newFakeStore())

	_, err := m.Create(admin1, subject1, "A", -1)
	require.NoError(t, err)
	_, err = m.Create(admin1, subject2, "B", -1)
	require.NoError(t, err)
	_, err = m.Create(admin2, "76561198000000002", "C", -1)
	require.NoError(t, err)

	mine, err := m.GetActive(admin1, nil)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	// Issuer filter accepts any SteamID rendition
	mine, err = m.GetActive("STEAM_0:1:4", nil)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = m.GetActive("garbage", nil)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestEventCallbacks(t *testing.T) {
	m, _, _ := newTestManager(newFakeStore())

	var mu sync.Mutex
	var events []Event
	m.OnEvent(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	_, err := m.Create(admin1, subject1, "Player", -1)
	require.NoError(t, err)
	require.NoError(t, m.Review(admin1, 1, "abuse", -1))
	require.NoError(t, m.Lift(admin1, 1))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 3)
	assert.Equal(t, RecordAdded, events[0].Action)
	assert.Equal(t, RecordUpdated, events[1].Action)
	assert.Equal(t, RecordRemoved, events[2].Action)
	assert.Equal(t, "ban_steamid", events[0].Kind)
	assert.Equal(t, uint(1), events[0].Record.ID)
}

func TestStoreFailuresNeverMutateCache(t *testing.T) {
	store := newFakeStore()
	m, _, notifier := newTestManager(store)

	_, err := m.Create(admin1, subject1, "Player", -1)
	require.NoError(t, err)

	store.failGet = true
	require.NoError(t, m.Lift(admin1, 1))
	assert.True(t, m.IsRestricted(subject1))

	store.failGet = false
	store.failUpdate = true
	require.NoError(t, m.Lift(admin1, 1))
	assert.True(t, m.IsRestricted(subject1))

	assert.Equal(t, 2, notifier.count())
}
