package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keybot/keyhub/internal/model"
)

func TestUnitOfWork_StateMachine(t *testing.T) {
	eachBackend(t, func(t *testing.T, f UnitOfWorkFactory) {
		uow, err := f.Begin(context.Background())
		require.NoError(t, err)
		assert.Equal(t, UnitOfWorkOpen, uow.State())

		require.NoError(t, uow.Commit())
		assert.Equal(t, UnitOfWorkCommitted, uow.State())

		assert.ErrorIs(t, uow.Commit(), ErrUnitOfWorkClosed)
		assert.ErrorIs(t, uow.Rollback(), ErrUnitOfWorkClosed)
		assert.Equal(t, UnitOfWorkCommitted, uow.State())

		uow, err = f.Begin(context.Background())
		require.NoError(t, err)
		require.NoError(t, uow.Rollback())
		assert.Equal(t, UnitOfWorkRolledBack, uow.State())
		assert.ErrorIs(t, uow.Commit(), ErrUnitOfWorkClosed)
	})
}

func TestWithin_ErrorRollsBackAndPropagatesUnchanged(t *testing.T) {
	boom := errors.New("boom")

	eachBackend(t, func(t *testing.T, f UnitOfWorkFactory) {
		err := Within(context.Background(), f, func(ctx context.Context, s InventoryStore) error {
			addKey(ctx, t, s, "m1", "Hades", model.PlatformSteam, "k1")
			return boom
		})
		assert.Same(t, boom, err)

		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			keys, err := s.ListMemberKeys(ctx, "m1")
			require.NoError(t, err)
			assert.Empty(t, keys)

			_, err = s.GetTitle(ctx, "Hades")
			assert.ErrorIs(t, err, ErrNotFound)
			return nil
		})
	})
}

func TestWithin_PanicRollsBackAndRepanics(t *testing.T) {
	eachBackend(t, func(t *testing.T, f UnitOfWorkFactory) {
		assert.PanicsWithValue(t, "kaboom", func() {
			_ = Within(context.Background(), f, func(ctx context.Context, s InventoryStore) error {
				_, err := s.GetOrCreateMember(ctx, "m1")
				require.NoError(t, err)
				panic("kaboom")
			})
		})

		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			_, err := s.GetMember(ctx, "m1")
			assert.ErrorIs(t, err, ErrNotFound)
			return nil
		})
	})
}

func TestWithin_CommitsOnSuccess(t *testing.T) {
	eachBackend(t, func(t *testing.T, f UnitOfWorkFactory) {
		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			addKey(ctx, t, s, "m1", "Hades", model.PlatformSteam, "k1")
			return nil
		})
		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			keys, err := s.ListMemberKeys(ctx, "m1")
			require.NoError(t, err)
			assert.Len(t, keys, 1)
			return nil
		})
	})
}

func TestMemoryUnitOfWork_BeginHonoursContext(t *testing.T) {
	f := NewMemoryUnitOfWorkFactory(NewMemoryDB())

	held, err := f.Begin(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.Begin(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, held.Rollback())
	next, err := f.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, next.Commit())
}

func TestMemoryUnitOfWork_CancelledContextRollsBack(t *testing.T) {
	f := NewMemoryUnitOfWorkFactory(NewMemoryDB())
	ctx, cancel := context.WithCancel(context.Background())

	err := Within(ctx, f, func(ctx context.Context, s InventoryStore) error {
		if _, err := s.GetOrCreateMember(ctx, "m1"); err != nil {
			return err
		}
		cancel()
		_, err := s.GetOrCreateGuild(ctx, "g1")
		return err
	})
	assert.ErrorIs(t, err, context.Canceled)

	inTx(t, f, func(ctx context.Context, s InventoryStore) error {
		_, err := s.GetMember(ctx, "m1")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
}

func TestMemoryUnitOfWork_IsolatesUncommittedWork(t *testing.T) {
	db := NewMemoryDB()
	f := NewMemoryUnitOfWorkFactory(db)

	uow, err := f.Begin(context.Background())
	require.NoError(t, err)
	_, err = uow.Store().GetOrCreateMember(context.Background(), "m1")
	require.NoError(t, err)

	_, published := db.state.members["m1"]
	assert.False(t, published)

	require.NoError(t, uow.Commit())
	_, published = db.state.members["m1"]
	assert.True(t, published)
}
