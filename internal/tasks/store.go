package tasks

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"todoboard-backend/internal/storage"
)

// Store owns the ordered task collection and mirrors it to a storage.KV
// after every mutation. Operations on unknown ids and empty text are no-ops,
// reported through the returned bool rather than an error.
type Store struct {
	mu     sync.Mutex
	kv     storage.KV
	key    string
	now    func() time.Time
	log    *slog.Logger
	tasks  []Task
	lastID int64
}

type Option func(*Store)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore returns an empty store. Call Initialize to load persisted tasks.
func NewStore(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		key:   StorageKey,
		now:   time.Now,
		log:   slog.Default(),
		tasks: []Task{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize replaces the in-memory collection with the persisted one.
// A missing, unreadable or malformed value yields an empty collection.
func (s *Store) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = []Task{}
	s.lastID = 0

	raw, ok, err := s.kv.GetItem(s.key)
	if err != nil {
		s.log.Warn("read tasks failed, starting empty", "key", s.key, "error", err)
		return
	}
	if !ok {
		return
	}

	var loaded []Task
	if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
		s.log.Warn("stored tasks are malformed, starting empty", "key", s.key, "error", err)
		return
	}

	if loaded != nil {
		s.tasks = loaded
	}
	for _, t := range s.tasks {
		if t.ID > s.lastID {
			s.lastID = t.ID
		}
	}
}

// Tasks returns a copy of the collection in creation order.
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) Get(id int64) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i], true
	}
	return Task{}, false
}

func (s *Store) Pending() []Task   { return Pending(s.Tasks()) }
func (s *Store) Completed() []Task { return Completed(s.Tasks()) }
func (s *Store) Stats() Stats      { return ComputeStats(s.Tasks()) }

// AddTask appends a new pending task built from the trimmed text.
// Blank text creates nothing and returns false.
func (s *Store) AddTask(rawText string) (Task, bool) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return Task{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t := Task{
		ID:        s.nextID(now),
		Text:      text,
		Completed: false,
		CreatedAt: formatCreatedAt(now),
	}
	s.tasks = append(s.tasks, t)
	s.persistLocked()

	return t, true
}

// DeleteTask removes the task and returns it.
func (s *Store) DeleteTask(id int64) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, false
	}

	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.persistLocked()

	return removed, true
}

// ToggleTask flips Completed and returns the updated task.
func (s *Store) ToggleTask(id int64) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, false
	}

	s.tasks[i].Completed = !s.tasks[i].Completed
	s.persistLocked()

	return s.tasks[i], true
}

// SetCompleted moves the task to the given state. It reports false when
// the task is absent or already there, and nothing is written then.
func (s *Store) SetCompleted(id int64, completed bool) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, false
	}
	if s.tasks[i].Completed == completed {
		return s.tasks[i], false
	}

	s.tasks[i].Completed = completed
	s.persistLocked()

	return s.tasks[i], true
}

// Persist writes the collection and returns the storage error, if any.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write()
}

func (s *Store) persistLocked() {
	if err := s.write(); err != nil {
		s.log.Warn("persist tasks failed, keeping in-memory state", "key", s.key, "error", err)
	}
}

func (s *Store) write() error {
	data, err := json.Marshal(s.tasks)
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	if err := s.kv.SetItem(s.key, string(data)); err != nil {
		return fmt.Errorf("write tasks: %w", err)
	}
	return nil
}

// nextID derives the id from the creation instant in milliseconds and bumps
// it past every id issued so far, so two adds in one millisecond still differ.
func (s *Store) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) indexOf(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
