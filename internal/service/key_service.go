package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"keybot/keyhub/internal/keyformat"
	"keybot/keyhub/internal/model"
	"keybot/keyhub/internal/repository"
)

type TargetType string

const (
	TargetMember TargetType = "member"
	TargetGuild  TargetType = "guild"
)

// TitleKeys is one group of a listing: a title and the keys held for it.
type TitleKeys struct {
	Title model.Title `json:"title"`
	Keys  []model.Key `json:"keys"`
}

type KeyService interface {
	// RegisterKey stores code for the member. An empty platform is inferred from the code's shape.
	RegisterKey(ctx context.Context, memberID, titleName, platform, code string) (*model.Key, error)
	RemoveKey(ctx context.Context, memberID, code string) (*model.Key, error)
	// ListKeys groups the target's keys by title, ordered by title name.
	ListKeys(ctx context.Context, targetID string, target TargetType) ([]TitleKeys, error)
	ClassifyKey(code string) (model.Platform, error)
}

type keyService struct {
	uow        repository.UnitOfWorkFactory
	classifier *keyformat.Classifier
}

func NewKeyService(uow repository.UnitOfWorkFactory, classifier *keyformat.Classifier) KeyService {
	return &keyService{uow: uow, classifier: classifier}
}

func (s *keyService) RegisterKey(ctx context.Context, memberID, titleName, platform, code string) (*model.Key, error) {
	titleName = strings.TrimSpace(titleName)
	code = strings.TrimSpace(code)
	if memberID == "" || titleName == "" || code == "" {
		return nil, ErrInvalidArgument
	}

	p, err := s.resolvePlatform(platform, code)
	if err != nil {
		return nil, err
	}

	var key *model.Key
	err = repository.Within(ctx, s.uow, func(ctx context.Context, store repository.InventoryStore) error {
		if _, err := store.GetOrCreateMember(ctx, memberID); err != nil {
			return fmt.Errorf("get member: %w", err)
		}

		exists, err := store.MemberHasCode(ctx, memberID, code)
		if err != nil {
			return fmt.Errorf("check key: %w", err)
		}
		if exists {
			return ErrKeyExists
		}

		title, err := store.GetOrCreateTitle(ctx, titleName)
		if err != nil {
			return fmt.Errorf("get title: %w", err)
		}

		key = &model.Key{
			Platform: p,
			TitleID:  title.ID,
			Title:    *title,
			Code:     code,
			OwnerID:  memberID,
		}
		if err := store.AddKey(ctx, key); err != nil {
			return fmt.Errorf("add key: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return key, nil
}

func (s *keyService) RemoveKey(ctx context.Context, memberID, code string) (*model.Key, error) {
	code = strings.TrimSpace(code)
	if memberID == "" || code == "" {
		return nil, ErrInvalidArgument
	}

	var removed *model.Key
	err := repository.Within(ctx, s.uow, func(ctx context.Context, store repository.InventoryStore) error {
		key, err := store.RemoveKey(ctx, memberID, code)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrKeyNotFound
			}
			return fmt.Errorf("remove key: %w", err)
		}
		removed = key
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *keyService) ListKeys(ctx context.Context, targetID string, target TargetType) ([]TitleKeys, error) {
	if targetID == "" {
		return nil, ErrInvalidArgument
	}

	var keys []model.Key
	err := repository.Within(ctx, s.uow, func(ctx context.Context, store repository.InventoryStore) error {
		var err error
		switch target {
		case TargetMember:
			keys, err = store.ListMemberKeys(ctx, targetID)
		case TargetGuild:
			keys, err = store.ListGuildKeys(ctx, targetID)
		default:
			return ErrInvalidArgument
		}
		if err != nil {
			return fmt.Errorf("list %s keys: %w", target, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return groupByTitle(keys), nil
}

func (s *keyService) ClassifyKey(code string) (model.Platform, error) {
	return s.classifier.Classify(code)
}

func (s *keyService) resolvePlatform(platform, code string) (model.Platform, error) {
	if strings.TrimSpace(platform) == "" {
		return s.classifier.Classify(code)
	}
	return model.ParsePlatform(platform)
}

func groupByTitle(keys []model.Key) []TitleKeys {
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Title.Name != b.Title.Name {
			return a.Title.Less(b.Title)
		}
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		return a.Code < b.Code
	})

	groups := make([]TitleKeys, 0)
	for _, key := range keys {
		n := len(groups)
		if n == 0 || groups[n-1].Title.Name != key.Title.Name {
			groups = append(groups, TitleKeys{Title: key.Title})
			n++
		}
		groups[n-1].Keys = append(groups[n-1].Keys, key)
	}
	return groups
}
