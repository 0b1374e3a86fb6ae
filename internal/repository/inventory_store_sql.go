package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"keybot/keyhub/internal/model"
)

type sqlInventoryStore struct {
	db *gorm.DB
}

// NewSQLInventoryStore binds the store to db, which is normally a transaction opened by
// the SQL unit of work. It works with any gorm dialect the models migrate on.
func NewSQLInventoryStore(db *gorm.DB) InventoryStore {
	return &sqlInventoryStore{db: db}
}

func (r *sqlInventoryStore) GetOrCreateMember(ctx context.Context, id string) (*model.Member, error) {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Member{ID: id}).Error; err != nil {
		return nil, err
	}
	return r.GetMember(ctx, id)
}

func (r *sqlInventoryStore) GetMember(ctx context.Context, id string) (*model.Member, error) {
	var member model.Member
	if err := r.db.WithContext(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

func (r *sqlInventoryStore) GetMemberForUpdate(ctx context.Context, id string) (*model.Member, error) {
	var member model.Member
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&member, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &member, nil
}

func (r *sqlInventoryStore) GetOrCreateGuild(ctx context.Context, id string) (*model.Guild, error) {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Guild{ID: id}).Error; err != nil {
		return nil, err
	}
	var guild model.Guild
	if err := r.db.WithContext(ctx).First(&guild, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &guild, nil
}

func (r *sqlInventoryStore) GetOrCreateTitle(ctx context.Context, name string) (*model.Title, error) {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&model.Title{Name: name}).Error; err != nil {
		return nil, err
	}
	return r.GetTitle(ctx, name)
}

func (r *sqlInventoryStore) GetTitle(ctx context.Context, name string) (*model.Title, error) {
	var title model.Title
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&title).Error; err != nil {
		return nil, translate(err)
	}
	return &title, nil
}

func (r *sqlInventoryStore) MemberHasCode(ctx context.Context, memberID, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Key{}).
		Where("owner_id = ? AND code = ?", memberID, code).
		Count(&count).Error
	return count > 0, err
}

func (r *sqlInventoryStore) AddKey(ctx context.Context, key *model.Key) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(key).Error
}

func (r *sqlInventoryStore) RemoveKey(ctx context.Context, memberID, code string) (*model.Key, error) {
	var key model.Key
	err := r.db.WithContext(ctx).
		Preload("Title").
		Where("owner_id = ? AND code = ?", memberID, code).
		First(&key).Error
	if err != nil {
		return nil, translate(err)
	}
	if err := r.db.WithContext(ctx).Delete(&model.Key{}, "id = ?", key.ID).Error; err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *sqlInventoryStore) ListMemberKeys(ctx context.Context, memberID string) ([]model.Key, error) {
	var keys []model.Key
	err := r.db.WithContext(ctx).
		Preload("Title").
		Where("owner_id = ?", memberID).
		Order("id").
		Find(&keys).Error
	return keys, err
}

func (r *sqlInventoryStore) ListGuildKeys(ctx context.Context, guildID string) ([]model.Key, error) {
	var keys []model.Key
	err := r.db.WithContext(ctx).
		Preload("Title").
		Where("owner_id IN (?)", r.guildMemberIDs(ctx, guildID)).
		Order("id").
		Find(&keys).Error
	return keys, err
}

func (r *sqlInventoryStore) AddGuildMember(ctx context.Context, guildID, memberID string) error {
	exists, err := r.IsGuildMember(ctx, guildID, memberID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}
	return r.db.WithContext(ctx).Create(&model.GuildMember{GuildID: guildID, MemberID: memberID}).Error
}

func (r *sqlInventoryStore) RemoveGuildMember(ctx context.Context, guildID, memberID string) error {
	res := r.db.WithContext(ctx).
		Where("guild_id = ? AND member_id = ?", guildID, memberID).
		Delete(&model.GuildMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqlInventoryStore) IsGuildMember(ctx context.Context, guildID, memberID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.GuildMember{}).
		Where("guild_id = ? AND member_id = ?", guildID, memberID).
		Count(&count).Error
	return count > 0, err
}

func (r *sqlInventoryStore) ListGuildMembers(ctx context.Context, guildID string) ([]model.Member, error) {
	var members []model.Member
	err := r.db.WithContext(ctx).
		Joins("JOIN guild_members ON guild_members.member_id = members.id").
		Where("guild_members.guild_id = ?", guildID).
		Order("members.id").
		Find(&members).Error
	return members, err
}

func (r *sqlInventoryStore) FindMemberKey(
	ctx context.Context, memberID, titleName string, platform model.Platform,
) (*model.Key, error) {
	var key model.Key
	err := r.db.WithContext(ctx).
		Preload("Title").
		Where("owner_id = ? AND platform = ?", memberID, platform).
		Where("title_id IN (?)", r.titleIDs(ctx, titleName)).
		Order("id").
		First(&key).Error
	if err != nil {
		return nil, translate(err)
	}
	return &key, nil
}

func (r *sqlInventoryStore) FindGuildPoolKeys(
	ctx context.Context, guildID, titleName string, platform model.Platform, excludeMemberID string,
) ([]model.Key, error) {
	var keys []model.Key
	err := r.db.WithContext(ctx).
		Preload("Title").
		Where("platform = ? AND owner_id <> ?", platform, excludeMemberID).
		Where("title_id IN (?)", r.titleIDs(ctx, titleName)).
		Where("owner_id IN (?)", r.guildMemberIDs(ctx, guildID)).
		Order("id").
		Find(&keys).Error
	return keys, err
}

func (r *sqlInventoryStore) TransferOwnership(ctx context.Context, keyID uuid.UUID, fromMemberID, toMemberID string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Key{}).
		Where("id = ? AND owner_id = ?", keyID, fromMemberID).
		Update("owner_id", toMemberID)
	if res.Error != nil {
		return fmt.Errorf("transfer key %s: %w", keyID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOwnershipConflict
	}
	return nil
}

func (r *sqlInventoryStore) UpdateLastClaim(ctx context.Context, memberID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Member{}).
		Where("id = ? AND (last_claim_at IS NULL OR last_claim_at < ?)", memberID, at).
		Update("last_claim_at", at).Error
}

func (r *sqlInventoryStore) titleIDs(ctx context.Context, name string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Title{}).Select("id").Where("name = ?", name)
}

func (r *sqlInventoryStore) guildMemberIDs(ctx context.Context, guildID string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.GuildMember{}).Select("member_id").Where("guild_id = ?", guildID)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
