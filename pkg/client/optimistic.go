package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrMutationPending is returned when a mutation is submitted while an
// earlier mutation with the same key is still in flight. Callers should
// disable the triggering control for the pending window instead of retrying.
var ErrMutationPending = errors.New("mutation already pending")

// tempIDPrefix marks locally created entities awaiting their server ID.
const tempIDPrefix = "tmp-"

// IsTempID reports whether id is a client-assigned temporary identifier.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

func newTempID() string {
	return tempIDPrefix + uuid.New().String()
}

// BoardStore holds a local copy of one project's board and runs mutations
// optimistically: the local state changes first, the REST call follows, and
// the change is either reconciled with the server's response or rolled back
// exactly to the pre-mutation snapshot.
type BoardStore struct {
	client    *Client
	projectID string

	mu      sync.Mutex
	board   *Board
	pending map[string]bool

	refetchCancel context.CancelFunc

	// OnError receives rollback notifications (the "toast"). Optional.
	OnError func(err error)
}

// NewBoardStore creates a store for one project.
func NewBoardStore(c *Client, projectID string) *BoardStore {
	return &BoardStore{
		client:    c,
		projectID: projectID,
		pending:   make(map[string]bool),
	}
}

// Load fetches the board from the server, replacing local state.
func (s *BoardStore) Load(ctx context.Context) error {
	board, err := s.client.FetchBoard(ctx, s.projectID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.board = board
	s.mu.Unlock()
	return nil
}

// Board returns a deep copy of the current local state.
func (s *BoardStore) Board() *Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.Clone()
}

// Pending reports whether a mutation with the given key is in flight.
func (s *BoardStore) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[key]
}

// mutate runs the optimistic mutation contract:
//
//	reject if key pending -> cancel in-flight refetch -> snapshot ->
//	apply locally -> REST call -> reconcile on success, restore snapshot on
//	failure -> schedule a refetch either way.
func (s *BoardStore) mutate(ctx context.Context, key string, apply func(*Board), call func(context.Context) (func(*Board), error)) error {
	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		return errors.New("board not loaded")
	}
	if s.pending[key] {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrMutationPending, key)
	}
	s.pending[key] = true

	// A stale refetch finishing mid-mutation would clobber the optimistic
	// state, so any in-flight one dies now.
	if s.refetchCancel != nil {
		s.refetchCancel()
		s.refetchCancel = nil
	}

	snapshot := s.board.Clone()
	apply(s.board)
	s.mu.Unlock()

	reconcile, err := call(ctx)

	s.mu.Lock()
	if err != nil {
		s.board = snapshot
	} else if reconcile != nil {
		reconcile(s.board)
	}
	delete(s.pending, key)
	s.mu.Unlock()

	if err != nil && s.OnError != nil {
		s.OnError(err)
	}

	// Step 7: converge with the server even if reconciliation missed
	// something.
	s.scheduleRefetch()

	if err != nil {
		return err
	}
	return nil
}

// scheduleRefetch starts a background board refetch that a later mutation can
// cancel.
func (s *BoardStore) scheduleRefetch() {
	s.mu.Lock()
	if s.refetchCancel != nil {
		s.refetchCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.refetchCancel = cancel
	s.mu.Unlock()

	go func() {
		board, err := s.client.FetchBoard(ctx, s.projectID)
		if err != nil || ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		// Adopt the fetched state only while nothing is mid-flight.
		if len(s.pending) == 0 && ctx.Err() == nil {
			s.board = board
		}
		s.mu.Unlock()
	}()
}

// CreateTask optimistically appends a task (with a temporary ID) to the given
// group, then reconciles the server-assigned ID and position.
func (s *BoardStore) CreateTask(ctx context.Context, groupID, name string) error {
	tempID := newTempID()
	key := "create-task:" + groupID

	return s.mutate(ctx,
		key,
		func(b *Board) {
			for i := range b.Groups {
				if b.Groups[i].ID == groupID {
					b.Groups[i].Tasks = append(b.Groups[i].Tasks, Task{
						ID:          tempID,
						TaskGroupID: groupID,
						Name:        name,
					})
					return
				}
			}
		},
		func(ctx context.Context) (func(*Board), error) {
			created, err := s.client.CreateTask(ctx, CreateTaskRequest{TaskGroupID: groupID, Name: name})
			if err != nil {
				return nil, err
			}
			return func(b *Board) {
				replaceTask(b, tempID, *created)
			}, nil
		},
	)
}

// MoveTask optimistically places the task at newIndex within the target
// group, then adopts the server-confirmed position key.
func (s *BoardStore) MoveTask(ctx context.Context, taskID, targetGroupID string, newIndex int) error {
	key := "move-task:" + taskID

	return s.mutate(ctx,
		key,
		func(b *Board) {
			task, ok := removeTask(b, taskID)
			if !ok {
				return
			}
			task.TaskGroupID = targetGroupID
			insertTask(b, targetGroupID, task, newIndex)
		},
		func(ctx context.Context) (func(*Board), error) {
			updated, err := s.client.UpdateTask(ctx, taskID, UpdateTaskRequest{
				TaskGroupID: &targetGroupID,
				Position:    &newIndex,
			})
			if err != nil {
				return nil, err
			}
			return func(b *Board) {
				replaceTask(b, taskID, *updated)
			}, nil
		},
	)
}

// DeleteTask optimistically removes the task, restoring it on failure.
func (s *BoardStore) DeleteTask(ctx context.Context, taskID string) error {
	key := "delete-task:" + taskID

	return s.mutate(ctx,
		key,
		func(b *Board) {
			removeTask(b, taskID)
		},
		func(ctx context.Context) (func(*Board), error) {
			if err := s.client.DeleteTask(ctx, taskID); err != nil {
				return nil, err
			}
			return nil, nil
		},
	)
}

// CreateTaskGroup optimistically appends a column, then reconciles the
// server-assigned ID and position.
func (s *BoardStore) CreateTaskGroup(ctx context.Context, name string) error {
	tempID := newTempID()
	key := "create-group"

	return s.mutate(ctx,
		key,
		func(b *Board) {
			b.Groups = append(b.Groups, BoardGroup{
				TaskGroup: TaskGroup{ID: tempID, ProjectID: s.projectID, Name: name},
				Tasks:     []Task{},
			})
		},
		func(ctx context.Context) (func(*Board), error) {
			created, err := s.client.CreateTaskGroup(ctx, CreateTaskGroupRequest{ProjectID: s.projectID, Name: name})
			if err != nil {
				return nil, err
			}
			return func(b *Board) {
				for i := range b.Groups {
					if b.Groups[i].ID == tempID {
						b.Groups[i].TaskGroup = *created
						return
					}
				}
			}, nil
		},
	)
}

// MoveTaskGroup optimistically places the column at newIndex, then adopts the
// server-confirmed position key.
func (s *BoardStore) MoveTaskGroup(ctx context.Context, groupID string, newIndex int) error {
	key := "move-group:" + groupID

	return s.mutate(ctx,
		key,
		func(b *Board) {
			moveGroup(b, groupID, newIndex)
		},
		func(ctx context.Context) (func(*Board), error) {
			updated, err := s.client.UpdateTaskGroup(ctx, groupID, UpdateTaskGroupRequest{Position: &newIndex})
			if err != nil {
				return nil, err
			}
			return func(b *Board) {
				for i := range b.Groups {
					if b.Groups[i].ID == groupID {
						b.Groups[i].Position = updated.Position
						return
					}
				}
			}, nil
		},
	)
}

// removeTask takes a task out of whichever group holds it.
func removeTask(b *Board, taskID string) (Task, bool) {
	for gi := range b.Groups {
		for ti, t := range b.Groups[gi].Tasks {
			if t.ID == taskID {
				tasks := b.Groups[gi].Tasks
				b.Groups[gi].Tasks = append(tasks[:ti], tasks[ti+1:]...)
				return t, true
			}
		}
	}
	return Task{}, false
}

// insertTask places a task at index within a group, clamping the index.
func insertTask(b *Board, groupID string, task Task, index int) {
	for gi := range b.Groups {
		if b.Groups[gi].ID != groupID {
			continue
		}
		tasks := b.Groups[gi].Tasks
		if index < 0 {
			index = 0
		}
		if index > len(tasks) {
			index = len(tasks)
		}
		tasks = append(tasks, Task{})
		copy(tasks[index+1:], tasks[index:])
		tasks[index] = task
		b.Groups[gi].Tasks = tasks
		return
	}
}

// replaceTask swaps the task with the given (possibly temporary) ID for the
// server's authoritative copy, keeping its current slot.
func replaceTask(b *Board, oldID string, task Task) {
	for gi := range b.Groups {
		for ti := range b.Groups[gi].Tasks {
			if b.Groups[gi].Tasks[ti].ID == oldID {
				b.Groups[gi].Tasks[ti] = task
				return
			}
		}
	}
}

// moveGroup repositions a column at index, clamping the index.
func moveGroup(b *Board, groupID string, index int) {
	var moved BoardGroup
	found := false
	groups := make([]BoardGroup, 0, len(b.Groups))
	for _, g := range b.Groups {
		if g.ID == groupID {
			moved = g
			found = true
			continue
		}
		groups = append(groups, g)
	}
	if !found {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(groups) {
		index = len(groups)
	}
	groups = append(groups, BoardGroup{})
	copy(groups[index+1:], groups[index:])
	groups[index] = moved
	b.Groups = groups
}
