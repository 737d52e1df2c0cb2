// Package history is the undo/redo command stack. Commands pair two
// asynchronous reversal closures; the stack runs at most one of them at a time.
package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrBusy is returned when an undo or redo is requested while another one is in flight
var ErrBusy = errors.New("another undo or redo is still in progress")

// DefaultLimit is the default number of undoable commands kept
const DefaultLimit = 100

// Command is a reversible unit of change. The forward action has already
// happened when the command is pushed.
type Command struct {
	Label string
	Undo  func(ctx context.Context) error
	Redo  func(ctx context.Context) error
}

// Stack is a past/future command list. It is safe for concurrent use.
type Stack struct {
	mu      sync.Mutex
	past    []*Command
	future  []*Command
	limit   int
	gen     uint64 // advanced by Push and Clear
	cleared uint64 // advanced by Clear only
	sem     *semaphore.Weighted
	busy    atomic.Bool
	logger  *zap.Logger
}

// NewStack creates an empty stack keeping at most limit past commands
func NewStack(limit int, logger *zap.Logger) *Stack {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stack{
		limit:  limit,
		sem:    semaphore.NewWeighted(1),
		logger: logger,
	}
}

// SetLimit changes the maximum past length, dropping the oldest entries if needed
func (s *Stack) SetLimit(limit int) {
	if limit <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = limit
	s.trim()
}

// Push records a command that has just been performed and truncates the redo list
func (s *Stack) Push(cmd *Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.past = append(s.past, cmd)
	s.future = nil
	s.trim()
	s.logger.Debug("command pushed", zap.String("command", cmd.Label), zap.Int("depth", len(s.past)))
}

// Remove drops a command from both lists. It is used when the forward
// action of a pushed command failed.
func (s *Stack) Remove(cmd *Command) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := false
	s.past, removed = without(s.past, cmd)
	if !removed {
		s.future, removed = without(s.future, cmd)
	}
	return removed
}

// Clear empties both lists. A reversal in flight finishes but its command
// is not put back.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.cleared++
	s.past = nil
	s.future = nil
}

// Undo reverses the most recent command. It is a no-op when nothing can be
// undone and returns ErrBusy while another reversal is running. If the
// command's undo fails the command is dropped from the stack.
func (s *Stack) Undo(ctx context.Context) error {
	return s.reverse(ctx, true)
}

// Redo re-applies the most recently undone command, with the same rules as Undo
func (s *Stack) Redo(ctx context.Context) error {
	return s.reverse(ctx, false)
}

// StartUndo claims the reversal slot and returns a function that performs
// the undo and then releases the slot. The claim is synchronous, so a caller
// that runs the reversal in the background still sees ErrBusy on a second
// request. The returned function must be called exactly once.
func (s *Stack) StartUndo() (func(context.Context) error, error) {
	return s.start(true)
}

// StartRedo is the redo counterpart of StartUndo
func (s *Stack) StartRedo() (func(context.Context) error, error) {
	return s.start(false)
}

func (s *Stack) reverse(ctx context.Context, undo bool) error {
	run, err := s.start(undo)
	if err != nil {
		return err
	}
	return run(ctx)
}

func (s *Stack) start(undo bool) (func(context.Context) error, error) {
	if !s.sem.TryAcquire(1) {
		return nil, ErrBusy
	}
	s.busy.Store(true)
	return func(ctx context.Context) error {
		defer func() {
			s.busy.Store(false)
			s.sem.Release(1)
		}()
		return s.run(ctx, undo)
	}, nil
}

func (s *Stack) run(ctx context.Context, undo bool) error {
	s.mu.Lock()
	src := &s.future
	if undo {
		src = &s.past
	}
	if len(*src) == 0 {
		s.mu.Unlock()
		return nil
	}
	cmd := (*src)[len(*src)-1]
	*src = (*src)[:len(*src)-1]
	gen, cleared := s.gen, s.cleared
	at := len(s.past)
	s.mu.Unlock()

	op, fn := "redo", cmd.Redo
	if undo {
		op, fn = "undo", cmd.Undo
	}
	if err := fn(ctx); err != nil {
		s.logger.Warn("command dropped after failed reversal",
			zap.String("command", cmd.Label), zap.String("op", op), zap.Error(err))
		return fmt.Errorf("failed to %s %s: %w", op, cmd.Label, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cleared != cleared {
		s.logger.Debug("command dropped after clear", zap.String("command", cmd.Label), zap.String("op", op))
		return nil
	}
	if undo {
		// A push while undoing invalidated the redo list
		if s.gen == gen {
			s.future = append(s.future, cmd)
		}
		return nil
	}
	if s.gen != gen {
		// Keep user-action order: the redone command precedes anything pushed meanwhile
		at = min(at, len(s.past))
		s.past = append(s.past[:at], append([]*Command{cmd}, s.past[at:]...)...)
	} else {
		s.past = append(s.past, cmd)
	}
	s.trim()
	return nil
}

// Busy reports whether a reversal is in flight
func (s *Stack) Busy() bool {
	return s.busy.Load()
}

// CanUndo reports whether the past list is non-empty
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.past) > 0
}

// CanRedo reports whether the future list is non-empty
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.future) > 0
}

// Depth returns the lengths of the past and future lists
func (s *Stack) Depth() (past, future int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.past), len(s.future)
}

// Labels returns the past labels oldest first, then the future labels next-redo first
func (s *Stack) Labels() (past, future []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.past {
		past = append(past, c.Label)
	}
	for i := len(s.future) - 1; i >= 0; i-- {
		future = append(future, s.future[i].Label)
	}
	return past, future
}

func (s *Stack) trim() {
	if over := len(s.past) - s.limit; over > 0 {
		s.past = append([]*Command(nil), s.past[over:]...)
	}
}

func without(list []*Command, cmd *Command) ([]*Command, bool) {
	for i, c := range list {
		if c == cmd {
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, false
}
