package repository

import (
	"context"
	"fmt"
	"sync"
)

type UnitOfWorkState int

const (
	UnitOfWorkUnopened UnitOfWorkState = iota
	UnitOfWorkOpen
	UnitOfWorkCommitted
	UnitOfWorkRolledBack
)

func (s UnitOfWorkState) String() string {
	switch s {
	case UnitOfWorkUnopened:
		return "unopened"
	case UnitOfWorkOpen:
		return "open"
	case UnitOfWorkCommitted:
		return "committed"
	case UnitOfWorkRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("UnitOfWorkState(%d)", int(s))
	}
}

// UnitOfWork wraps one logical operation in a transaction.
// It ends in exactly one of UnitOfWorkCommitted or UnitOfWorkRolledBack and cannot be reopened.
type UnitOfWork interface {
	Store() InventoryStore
	State() UnitOfWorkState
	Commit() error
	Rollback() error
}

// UnitOfWorkFactory opens units of work against one backing store.
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// Within runs fn inside a fresh unit of work. It commits when fn returns nil and rolls back
// on error or panic; fn's error is returned as is.
func Within(ctx context.Context, factory UnitOfWorkFactory, fn func(ctx context.Context, store InventoryStore) error) error {
	uow, err := factory.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}

	committed := false
	defer func() {
		if !committed && uow.State() == UnitOfWorkOpen {
			_ = uow.Rollback()
		}
	}()

	if err := fn(ctx, uow.Store()); err != nil {
		_ = uow.Rollback()
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}
	committed = true
	return nil
}

// lifecycle guards the Open -> terminal transition shared by every UnitOfWork variant.
type lifecycle struct {
	mu    sync.Mutex
	state UnitOfWorkState
}

func (l *lifecycle) State() UnitOfWorkState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *lifecycle) open() {
	l.mu.Lock()
	l.state = UnitOfWorkOpen
	l.mu.Unlock()
}

// finish runs end and records the terminal state. A failed commit counts as a rollback.
func (l *lifecycle) finish(target UnitOfWorkState, end func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != UnitOfWorkOpen {
		return ErrUnitOfWorkClosed
	}
	err := end()
	if err != nil && target == UnitOfWorkCommitted {
		l.state = UnitOfWorkRolledBack
		return err
	}
	l.state = target
	return err
}
