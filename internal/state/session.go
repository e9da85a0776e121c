package state

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Slot names one optional upload field of the dashboard
type Slot string

const (
	SlotFloorPlan    Slot = "floorplan"
	SlotRouteOverlay Slot = "route_overlay"
	SlotZoning       Slot = "zoning"
	SlotQCReports    Slot = "qc_reports"
	SlotReceipt      Slot = "receipt"
	SlotSealed       Slot = "sealed"
	SlotInVivo       Slot = "invivo"
	SlotAnimals      Slot = "animals"
	SlotDose         Slot = "tld"
)

// ErrUnknownSlot is returned when a request names a slot that does not exist
var ErrUnknownSlot = errors.New("unknown upload slot")

// Slots lists every slot in display order
var Slots = []Slot{
	SlotFloorPlan, SlotRouteOverlay, SlotZoning, SlotQCReports,
	SlotReceipt, SlotSealed, SlotInVivo, SlotAnimals, SlotDose,
}

// TableSlots are the slots whose uploads are parsed into DataFrames
var TableSlots = []Slot{SlotReceipt, SlotSealed, SlotInVivo, SlotAnimals, SlotDose}

// ImageSlots hold floor plans and overlays
var ImageSlots = []Slot{SlotFloorPlan, SlotRouteOverlay, SlotZoning}

// ParseSlot validates a slot name
func ParseSlot(name string) (Slot, error) {
	for _, s := range Slots {
		if string(s) == name {
			return s, nil
		}
	}
	return "", ErrUnknownSlot
}

// IsTable reports whether uploads to the slot are parsed as tables
func (s Slot) IsTable() bool { return containsSlot(TableSlots, s) }

// IsImage reports whether uploads to the slot are images
func (s Slot) IsImage() bool { return containsSlot(ImageSlots, s) }

func containsSlot(list []Slot, s Slot) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Upload is a raw file received for a slot
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
	UploadedAt  time.Time
}

// Files is a point-in-time copy of a session's inputs, safe to read without locks
type Files struct {
	Uploads map[Slot]*Upload
	Tables  map[Slot]*DataFrame
}

// Table returns the parsed DataFrame for a slot, or nil
func (f Files) Table(s Slot) *DataFrame { return f.Tables[s] }

// Has reports whether anything was uploaded to the slot
func (f Files) Has(s Slot) bool { return f.Uploads[s] != nil }

// Session is the per-browser context: authentication flag plus uploaded inputs
type Session struct {
	ID string

	mu            sync.RWMutex
	authenticated bool
	user          string
	uploads       map[Slot]*Upload
	tables        map[Slot]*DataFrame
	warnings      []string
	lastSeen      time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:       id,
		uploads:  make(map[Slot]*Upload),
		tables:   make(map[Slot]*DataFrame),
		lastSeen: now,
	}
}

// Authenticated reports whether the session passed the login gate
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// User returns the logged-in user name, or ""
func (s *Session) User() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Login marks the session authenticated for user
func (s *Session) Login(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.user = user
}

// Logout clears the authentication flag; uploaded inputs are kept until teardown
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.user = ""
}

// SetUpload replaces a slot wholesale. df is nil for non-table slots.
func (s *Session) SetUpload(slot Slot, up *Upload, df *DataFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[slot] = up
	if df != nil {
		s.tables[slot] = df
	} else {
		delete(s.tables, slot)
	}
}

// ClearSlot marks a slot as absent
func (s *Session) ClearSlot(slot Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.uploads, slot)
	delete(s.tables, slot)
}

// Upload returns the raw upload for a slot, or nil
func (s *Session) Upload(slot Slot) *Upload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uploads[slot]
}

// Table returns the parsed DataFrame for a slot, or nil
func (s *Session) Table(slot Slot) *DataFrame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[slot]
}

// Files snapshots the session's inputs. Uploads and frames are replaced, never
// mutated, so sharing the pointers is safe.
func (s *Session) Files() Files {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f := Files{
		Uploads: make(map[Slot]*Upload, len(s.uploads)),
		Tables:  make(map[Slot]*DataFrame, len(s.tables)),
	}
	for k, v := range s.uploads {
		f.Uploads[k] = v
	}
	for k, v := range s.tables {
		f.Tables[k] = v
	}
	return f
}

// AddWarning queues a message for the next render
func (s *Session) AddWarning(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, msg)
}

// TakeWarnings returns and clears the queued warnings
func (s *Session) TakeWarnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.warnings
	s.warnings = nil
	return w
}

// reset tears the session down: flag, uploads and warnings are all dropped
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.user = ""
	s.uploads = make(map[Slot]*Upload)
	s.tables = make(map[Slot]*DataFrame)
	s.warnings = nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastSeen)
}

// Store holds live sessions keyed by id
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
// A non-positive ttl disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a fresh, unauthenticated session with no files
func (st *Store) Create() *Session {
	s := newSession(uuid.NewString(), st.now())
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get looks up a live session and refreshes its idle timer
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	now := st.now()
	if st.expired(s, now) {
		st.Delete(id)
		return nil, false
	}
	s.touch(now)
	return s, true
}

// Delete tears a session down and forgets it
func (st *Store) Delete(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.reset()
	}
}

// Sweep removes every idle session and returns how many were torn down
func (st *Store) Sweep() int {
	now := st.now()
	var stale []string
	st.mu.RLock()
	for id, s := range st.sessions {
		if st.expired(s, now) {
			stale = append(stale, id)
		}
	}
	st.mu.RUnlock()
	for _, id := range stale {
		st.Delete(id)
	}
	return len(stale)
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *Store) expired(s *Session, now time.Time) bool {
	return st.ttl > 0 && s.idleSince(now) > st.ttl
}
