package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"keybot/keyhub/internal/model"
)

// InventoryStore is the transactional view of titles, keys, members and guilds.
// An instance is bound to a single unit of work; see UnitOfWorkFactory.
type InventoryStore interface {
	GetOrCreateMember(ctx context.Context, id string) (*model.Member, error)
	GetMember(ctx context.Context, id string) (*model.Member, error)
	// GetMemberForUpdate reads the member and holds its row until the unit of work ends,
	// so concurrent claims by the same member see each other's last claim.
	GetMemberForUpdate(ctx context.Context, id string) (*model.Member, error)
	GetOrCreateGuild(ctx context.Context, id string) (*model.Guild, error)
	GetOrCreateTitle(ctx context.Context, name string) (*model.Title, error)
	GetTitle(ctx context.Context, name string) (*model.Title, error)

	MemberHasCode(ctx context.Context, memberID, code string) (bool, error)
	AddKey(ctx context.Context, key *model.Key) error
	RemoveKey(ctx context.Context, memberID, code string) (*model.Key, error)
	ListMemberKeys(ctx context.Context, memberID string) ([]model.Key, error)
	ListGuildKeys(ctx context.Context, guildID string) ([]model.Key, error)

	AddGuildMember(ctx context.Context, guildID, memberID string) error
	RemoveGuildMember(ctx context.Context, guildID, memberID string) error
	ListGuildMembers(ctx context.Context, guildID string) ([]model.Member, error)
	IsGuildMember(ctx context.Context, guildID, memberID string) (bool, error)

	// FindMemberKey returns ErrNotFound when the member holds no key for the title and platform.
	FindMemberKey(ctx context.Context, memberID, titleName string, platform model.Platform) (*model.Key, error)
	// FindGuildPoolKeys returns the matching keys owned by guild members other than excludeMemberID.
	FindGuildPoolKeys(ctx context.Context, guildID, titleName string, platform model.Platform, excludeMemberID string) ([]model.Key, error)
	// TransferOwnership moves the key only if fromMemberID still owns it, otherwise ErrOwnershipConflict.
	TransferOwnership(ctx context.Context, keyID uuid.UUID, fromMemberID, toMemberID string) error
	// UpdateLastClaim never moves a member's timestamp backwards.
	UpdateLastClaim(ctx context.Context, memberID string, at time.Time) error
}
