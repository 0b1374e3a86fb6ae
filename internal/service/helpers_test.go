package service

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"keybot/keyhub/internal/keyformat"
	"keybot/keyhub/internal/model"
	"keybot/keyhub/internal/repository"
)

const (
	codeK1 = "AAAAA-BBBBB-CCCCC"
	codeK2 = "DDDDD-EEEEE-FFFFF"
	codeK3 = "GGGGG-HHHHH-IIIII"
)

type fixture struct {
	uow    repository.UnitOfWorkFactory
	keys   KeyService
	guilds GuildService
	claims ClaimService
	now    time.Time
}

func newFixture(t *testing.T, wait time.Duration) *fixture {
	return newFixtureWith(t, repository.NewMemoryUnitOfWorkFactory(repository.NewMemoryDB()), wait)
}

func newFixtureWith(t *testing.T, uow repository.UnitOfWorkFactory, wait time.Duration) *fixture {
	t.Helper()

	classifier, err := keyformat.NewClassifier()
	require.NoError(t, err)

	f := &fixture{
		uow:    uow,
		keys:   NewKeyService(uow, classifier),
		guilds: NewGuildService(uow),
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.claims = NewClaimService(uow, NewCooldownPolicy(wait), NewRandomSelection(rand.New(rand.NewPCG(1, 2))), f.clock)
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) join(t *testing.T, guildID string, members ...string) {
	t.Helper()
	for _, m := range members {
		require.NoError(t, f.guilds.JoinGuild(context.Background(), m, guildID))
	}
}

func (f *fixture) register(t *testing.T, memberID, title, code string) *model.Key {
	t.Helper()
	key, err := f.keys.RegisterKey(context.Background(), memberID, title, "", code)
	require.NoError(t, err)
	return key
}

func (f *fixture) member(t *testing.T, id string) *model.Member {
	t.Helper()
	var member *model.Member
	require.NoError(t, repository.Within(context.Background(), f.uow, func(ctx context.Context, s repository.InventoryStore) error {
		var err error
		member, err = s.GetMember(ctx, id)
		return err
	}))
	return member
}

func (f *fixture) owned(t *testing.T, memberID string) []string {
	t.Helper()
	groups, err := f.keys.ListKeys(context.Background(), memberID, TargetMember)
	require.NoError(t, err)
	codes := []string{}
	for _, g := range groups {
		for _, k := range g.Keys {
			codes = append(codes, k.Code)
		}
	}
	return codes
}
