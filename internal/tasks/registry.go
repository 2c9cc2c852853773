package tasks

import (
	"regexp"
	"sync"

	"todoboard-backend/internal/storage"
)

const DefaultClientID = "default"

var clientIDRe = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// ValidClientID reports whether id can name a board.
func ValidClientID(id string) bool {
	return clientIDRe.MatchString(id)
}

// Board is the task state of one browser: its store and its drag controller.
type Board struct {
	ClientID string
	Store    *Store
	Drag     *DragController
}

// Registry hands out one Board per client id, loading each lazily.
type Registry struct {
	mu     sync.Mutex
	kv     storage.KV
	opts   []Option
	boards map[string]*Board
}

func NewRegistry(kv storage.KV, opts ...Option) *Registry {
	return &Registry{
		kv:     kv,
		opts:   opts,
		boards: map[string]*Board{},
	}
}

// Board returns the board for clientID, initializing it from storage on first use.
// An empty id means DefaultClientID.
func (r *Registry) Board(clientID string) *Board {
	if clientID == "" {
		clientID = DefaultClientID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.boards[clientID]; ok {
		return b
	}

	store := NewStore(storage.WithPrefix(r.kv, "client:"+clientID+":"), r.opts...)
	store.Initialize()

	b := &Board{
		ClientID: clientID,
		Store:    store,
		Drag:     NewDragController(store),
	}
	r.boards[clientID] = b
	return b
}
