package tasks

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Zone is a drop target on the board.
type Zone string

const (
	ZonePending   Zone = "pending"
	ZoneCompleted Zone = "completed"
)

func ParseZone(s string) (Zone, error) {
	switch Zone(s) {
	case ZonePending, ZoneCompleted:
		return Zone(s), nil
	}
	return "", fmt.Errorf("unknown drop zone %q", s)
}

// DragState is either Idle or Dragging a task. The dragged task's
// completion is captured at drag start and decides the drop direction.
type DragState struct {
	dragging  bool
	taskID    int64
	completed bool
}

// Idle is the state with no drag in progress.
var Idle = DragState{}

func Dragging(t Task) DragState {
	return DragState{dragging: true, taskID: t.ID, completed: t.Completed}
}

func (s DragState) IsIdle() bool { return !s.dragging }

// TaskID returns the dragged task id, or false when idle.
func (s DragState) TaskID() (int64, bool) {
	return s.taskID, s.dragging
}

func (s DragState) MarshalJSON() ([]byte, error) {
	if !s.dragging {
		return json.Marshal(map[string]any{"state": "idle"})
	}
	return json.Marshal(map[string]any{
		"state":     "dragging",
		"taskId":    s.taskID,
		"completed": s.completed,
	})
}

// Transition is the store change a drop resolves to.
// Apply is false when the drop changes nothing.
type Transition struct {
	Apply     bool  `json:"apply"`
	TaskID    int64 `json:"taskId,omitempty"`
	Completed bool  `json:"completed"`
}

// BeginDrag replaces any previous drag; there is a single pointer.
func BeginDrag(_ DragState, t Task) DragState {
	return Dragging(t)
}

// DragOver only signals that the zone accepts drops.
func DragOver(DragState) bool {
	return true
}

// Drop resolves a drop on zone. The next state is always Idle.
func Drop(s DragState, zone Zone) (DragState, Transition) {
	if !s.dragging {
		return Idle, Transition{}
	}

	switch {
	case zone == ZonePending && s.completed:
		return Idle, Transition{Apply: true, TaskID: s.taskID, Completed: false}
	case zone == ZoneCompleted && !s.completed:
		return Idle, Transition{Apply: true, TaskID: s.taskID, Completed: true}
	}
	return Idle, Transition{}
}

// DragController holds the drag state of one board and applies drops to its store.
type DragController struct {
	mu    sync.Mutex
	store *Store
	state DragState
}

func NewDragController(store *Store) *DragController {
	return &DragController{store: store, state: Idle}
}

func (c *DragController) Current() DragState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *DragController) BeginDrag(t Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = BeginDrag(c.state, t)
}

// BeginDragID starts dragging the stored task with id.
// It returns false and leaves the state untouched if there is no such task.
func (c *DragController) BeginDragID(id int64) (Task, bool) {
	t, ok := c.store.Get(id)
	if !ok {
		return Task{}, false
	}
	c.BeginDrag(t)
	return t, true
}

func (c *DragController) DragOver() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DragOver(c.state)
}

func (c *DragController) DropOnPending() (Transition, Task, bool) {
	return c.Drop(ZonePending)
}

func (c *DragController) DropOnCompleted() (Transition, Task, bool) {
	return c.Drop(ZoneCompleted)
}

// Drop resolves the current drag against zone and applies the transition.
// The bool reports whether the store changed.
func (c *DragController) Drop(zone Zone) (Transition, Task, bool) {
	c.mu.Lock()
	var tr Transition
	c.state, tr = Drop(c.state, zone)
	c.mu.Unlock()

	if !tr.Apply {
		return tr, Task{}, false
	}
	t, changed := c.store.SetCompleted(tr.TaskID, tr.Completed)
	return tr, t, changed
}
