package service

import (
	"context"
	"errors"
	"fmt"

	"keybot/keyhub/internal/model"
	"keybot/keyhub/internal/repository"
)

type GuildService interface {
	JoinGuild(ctx context.Context, memberID, guildID string) error
	LeaveGuild(ctx context.Context, memberID, guildID string) error
	ListMembers(ctx context.Context, guildID string) ([]model.Member, error)
	IsMember(ctx context.Context, memberID, guildID string) (bool, error)
}

type guildService struct {
	uow repository.UnitOfWorkFactory
}

func NewGuildService(uow repository.UnitOfWorkFactory) GuildService {
	return &guildService{uow: uow}
}

func (s *guildService) JoinGuild(ctx context.Context, memberID, guildID string) error {
	if memberID == "" || guildID == "" {
		return ErrInvalidArgument
	}
	return repository.Within(ctx, s.uow, func(ctx context.Context, store repository.InventoryStore) error {
		if _, err := store.GetOrCreateMember(ctx, memberID); err != nil {
			return fmt.Errorf("get member: %w", err)
		}
		if _, err := store.GetOrCreateGuild(ctx, guildID); err != nil {
			return fmt.Errorf("get guild: %w", err)
		}
		if err := store.AddGuildMember(ctx, guildID, memberID); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return ErrAlreadyGuildMember
			}
			return fmt.Errorf("add guild member: %w", err)
		}
		return nil
	})
}

func (s *guildService) LeaveGuild(ctx context.Context, memberID, guildID string) error {
	if memberID == "" || guildID == "" {
		return ErrInvalidArgument
	}
	return repository.Within(ctx, s.uow, func(ctx context.Context, store repository.InventoryStore) error {
		if err := store.RemoveGuildMember(ctx, guildID, memberID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrNotGuildMember
			}
			return fmt.Errorf("remove guild member: %w", err)
		}
		return nil
	})
}

func (s *guildService) ListMembers(ctx context.Context, guildID string) ([]model.Member, error) {
	if guildID == "" {
		return nil, ErrInvalidArgument
	}
	var members []model.Member
	err := repository.Within(ctx, s.uow, func(ctx context.Context, store repository.InventoryStore) error {
		var err error
		members, err = store.ListGuildMembers(ctx, guildID)
		if err != nil {
			return fmt.Errorf("list guild members: %w", err)
		}
		return nil
	})
	return members, err
}

func (s *guildService) IsMember(ctx context.Context, memberID, guildID string) (bool, error) {
	if memberID == "" || guildID == "" {
		return false, ErrInvalidArgument
	}
	var member bool
	err := repository.Within(ctx, s.uow, func(ctx context.Context, store repository.InventoryStore) error {
		var err error
		member, err = store.IsGuildMember(ctx, guildID, memberID)
		if err != nil {
			return fmt.Errorf("check guild member: %w", err)
		}
		return nil
	})
	return member, err
}
