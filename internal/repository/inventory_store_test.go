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

func TestInventoryStore_GetOrCreateIsIdempotent(t *testing.T) {
	eachBackend(t, func(t *testing.T, f UnitOfWorkFactory) {
		var first, second *model.Title
		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			var err error
			first, err = s.GetOrCreateTitle(ctx, "Hades")
			require.NoError(t, err)
			_, err = s.GetOrCreateMember(ctx, "m1")
			require.NoError(t, err)
			_, err = s.GetOrCreateGuild(ctx, "g1")
			return err
		})
		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			var err error
			second, err = s.GetOrCreateTitle(ctx, "Hades")
			require.NoError(t, err)

			member, err := s.GetMember(ctx, "m1")
			require.NoError(t, err)
			assert.Nil(t, member.LastClaimAt)

			_, err = s.GetMember(ctx, "nobody")
			assert.ErrorIs(t, err, ErrNotFound)
			return nil
		})
		assert.Equal(t, first.ID, second.ID)
	})
}

func TestInventoryStore_TitleNamesAreCaseSensitive(t *testing.T) {
	eachBackend(t, func(t *testing.T, f UnitOfWorkFactory) {
		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			_, err := s.GetOrCreateTitle(ctx, "Celeste")
			require.NoError(t, err)
			_, err = s.GetTitle(ctx, "celeste")
			assert.ErrorIs(t, err, ErrNotFound)
			return nil
		})
	})
}

func TestInventoryStore_KeyLifecycle(t *testing.T) {
	eachBackend(t, func(t *testing.T, f UnitOfWorkFactory) {
		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			key := addKey(ctx, t, s, "m1", "Hades", model.PlatformSteam, "AAAAA-BBBBB-CCCCC")

			has, err := s.MemberHasCode(ctx, "m1", "AAAAA-BBBBB-CCCCC")
			require.NoError(t, err)
			assert.True(t, has)

			has, err = s.MemberHasCode(ctx, "m2", "AAAAA-BBBBB-CCCCC")
			require.NoError(t, err)
			assert.False(t, has)

			found, err := s.FindMemberKey(ctx, "m1", "Hades", model.PlatformSteam)
			require.NoError(t, err)
			assert.Equal(t, key.ID, found.ID)
			assert.Equal(t, "Hades", found.Title.Name)

			_, err = s.FindMemberKey(ctx, "m1", "Hades", model.PlatformGOG)
			assert.ErrorIs(t, err, ErrNotFound)
			return nil
		})

		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			removed, err := s.RemoveKey(ctx, "m1", "AAAAA-BBBBB-CCCCC")
			require.NoError(t, err)
			assert.Equal(t, "Hades", removed.Title.Name)

			_, err = s.RemoveKey(ctx, "m1", "AAAAA-BBBBB-CCCCC")
			assert.ErrorIs(t, err, ErrNotFound)

			keys, err := s.ListMemberKeys(ctx, "m1")
			require.NoError(t, err)
			assert.Empty(t, keys)
			return nil
		})
	})
}

func TestInventoryStore_GuildMembership(t *testing.T) {
	eachBackend(t, func(t *testing.T, f UnitOfWorkFactory) {
		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			for _, id := range []string{"m2", "m1"} {
				_, err := s.GetOrCreateMember(ctx, id)
				require.NoError(t, err)
				require.NoError(t, s.AddGuildMember(ctx, "g1", id))
			}
			assert.ErrorIs(t, s.AddGuildMember(ctx, "g1", "m1"), ErrAlreadyExists)

			members, err := s.ListGuildMembers(ctx, "g1")
			require.NoError(t, err)
			require.Len(t, members, 2)
			assert.Equal(t, "m1", members[0].ID)
			assert.Equal(t, "m2", members[1].ID)

			require.NoError(t, s.RemoveGuildMember(ctx, "g1", "m1"))
			assert.ErrorIs(t, s.RemoveGuildMember(ctx, "g1", "m1"), ErrNotFound)
			assert.ErrorIs(t, s.RemoveGuildMember(ctx, "other", "m2"), ErrNotFound)

			members, err = s.ListGuildMembers(ctx, "g1")
			require.NoError(t, err)
			require.Len(t, members, 1)
			assert.Equal(t, "m2", members[0].ID)
			return nil
		})
	})
}

func TestInventoryStore_GuildPoolAndListing(t *testing.T) {
	eachBackend(t, func(t *testing.T, f UnitOfWorkFactory) {
		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			addKey(ctx, t, s, "requester", "Hades", model.PlatformSteam, "own")
			offered := addKey(ctx, t, s, "b", "Hades", model.PlatformSteam, "b-1")
			addKey(ctx, t, s, "b", "Hades", model.PlatformGOG, "b-gog")
			addKey(ctx, t, s, "b", "Celeste", model.PlatformSteam, "b-celeste")
			offered2 := addKey(ctx, t, s, "c", "Hades", model.PlatformSteam, "c-1")
			addKey(ctx, t, s, "outsider", "Hades", model.PlatformSteam, "x-1")

			for _, id := range []string{"requester", "b", "c"} {
				require.NoError(t, s.AddGuildMember(ctx, "g1", id))
			}

			pool, err := s.FindGuildPoolKeys(ctx, "g1", "Hades", model.PlatformSteam, "requester")
			require.NoError(t, err)
			ids := []string{}
			for _, k := range pool {
				ids = append(ids, k.Code)
				assert.Equal(t, "Hades", k.Title.Name)
			}
			assert.ElementsMatch(t, []string{offered.Code, offered2.Code}, ids)

			all, err := s.ListGuildKeys(ctx, "g1")
			require.NoError(t, err)
			assert.Len(t, all, 5)

			require.NoError(t, s.RemoveGuildMember(ctx, "g1", "b"))
			all, err = s.ListGuildKeys(ctx, "g1")
			require.NoError(t, err)
			assert.Len(t, all, 2)
			return nil
		})
	})
}

func TestInventoryStore_TransferOwnership(t *testing.T) {
	eachBackend(t, func(t *testing.T, f UnitOfWorkFactory) {
		var key model.Key
		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			key = addKey(ctx, t, s, "b", "Hades", model.PlatformSteam, "b-1")
			_, err := s.GetOrCreateMember(ctx, "a")
			return err
		})

		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			require.NoError(t, s.TransferOwnership(ctx, key.ID, "b", "a"))

			err := s.TransferOwnership(ctx, key.ID, "b", "c")
			assert.ErrorIs(t, err, ErrOwnershipConflict)
			assert.True(t, errors.Is(err, ErrNotFound))
			return nil
		})

		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			bKeys, err := s.ListMemberKeys(ctx, "b")
			require.NoError(t, err)
			assert.Empty(t, bKeys)

			aKeys, err := s.ListMemberKeys(ctx, "a")
			require.NoError(t, err)
			require.Len(t, aKeys, 1)
			assert.Equal(t, key.ID, aKeys[0].ID)
			assert.Equal(t, "a", aKeys[0].OwnerID)
			return nil
		})
	})
}

func TestInventoryStore_UpdateLastClaimNeverMovesBackwards(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t1.Add(time.Hour)

	eachBackend(t, func(t *testing.T, f UnitOfWorkFactory) {
		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			_, err := s.GetOrCreateMember(ctx, "a")
			require.NoError(t, err)
			return s.UpdateLastClaim(ctx, "a", t1)
		})

		lastClaim := func() time.Time {
			var got time.Time
			inTx(t, f, func(ctx context.Context, s InventoryStore) error {
				m, err := s.GetMember(ctx, "a")
				require.NoError(t, err)
				require.NotNil(t, m.LastClaimAt)
				got = *m.LastClaimAt
				return nil
			})
			return got
		}

		assert.True(t, lastClaim().Equal(t1))

		inTx(t, f, func(ctx context.Context, s InventoryStore) error { return s.UpdateLastClaim(ctx, "a", t0) })
		assert.True(t, lastClaim().Equal(t1))

		inTx(t, f, func(ctx context.Context, s InventoryStore) error { return s.UpdateLastClaim(ctx, "a", t2) })
		assert.True(t, lastClaim().Equal(t2))
	})
}

func TestInventoryStore_GetMemberForUpdate(t *testing.T) {
	at := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	eachBackend(t, func(t *testing.T, f UnitOfWorkFactory) {
		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			_, err := s.GetMemberForUpdate(ctx, "m1")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = s.GetOrCreateMember(ctx, "m1")
			require.NoError(t, err)
			require.NoError(t, s.UpdateLastClaim(ctx, "m1", at))

			locked, err := s.GetMemberForUpdate(ctx, "m1")
			require.NoError(t, err)
			require.NotNil(t, locked.LastClaimAt)
			assert.True(t, locked.LastClaimAt.Equal(at))

			again, err := s.GetOrCreateMember(ctx, "m1")
			require.NoError(t, err)
			assert.True(t, again.LastClaimAt.Equal(at), "get-or-create keeps the existing row")
			return nil
		})
	})
}

func TestInventoryStore_IsGuildMember(t *testing.T) {
	eachBackend(t, func(t *testing.T, f UnitOfWorkFactory) {
		inTx(t, f, func(ctx context.Context, s InventoryStore) error {
			_, err := s.GetOrCreateMember(ctx, "m1")
			require.NoError(t, err)

			ok, err := s.IsGuildMember(ctx, "g1", "m1")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.AddGuildMember(ctx, "g1", "m1"))
			ok, err = s.IsGuildMember(ctx, "g1", "m1")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.IsGuildMember(ctx, "g2", "m1")
			require.NoError(t, err)
			assert.False(t, ok)
			return nil
		})
	})
}
