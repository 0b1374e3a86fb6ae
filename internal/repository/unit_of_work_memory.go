package repository

import (
	"context"
	"time"
)

// MemoryDB is the shared state of the in-memory backend. Units of work are serialised on a
// single slot, so at most one of them reads or writes the state at a time.
type MemoryDB struct {
	slot  chan struct{}
	state *memoryState
	now   func() time.Time
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		slot:  make(chan struct{}, 1),
		state: newMemoryState(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

type memoryUnitOfWork struct {
	lifecycle
	db      *MemoryDB
	working *memoryState
	store   *memoryInventoryStore
}

type memoryUnitOfWorkFactory struct {
	db *MemoryDB
}

func NewMemoryUnitOfWorkFactory(db *MemoryDB) UnitOfWorkFactory {
	return &memoryUnitOfWorkFactory{db: db}
}

func (f *memoryUnitOfWorkFactory) Begin(ctx context.Context) (UnitOfWork, error) {
	select {
	case f.db.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	working := f.db.state.clone()
	uow := &memoryUnitOfWork{
		db:      f.db,
		working: working,
		store:   &memoryInventoryStore{state: working, now: f.db.now},
	}
	uow.open()
	return uow, nil
}

func (u *memoryUnitOfWork) Store() InventoryStore { return u.store }

func (u *memoryUnitOfWork) Commit() error {
	return u.finish(UnitOfWorkCommitted, func() error {
		u.db.state = u.working
		<-u.db.slot
		return nil
	})
}

func (u *memoryUnitOfWork) Rollback() error {
	return u.finish(UnitOfWorkRolledBack, func() error {
		<-u.db.slot
		return nil
	})
}
