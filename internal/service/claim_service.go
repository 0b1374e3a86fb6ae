package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"keybot/keyhub/internal/model"
	"keybot/keyhub/internal/repository"
)

// maxTransferAttempts bounds the retries after losing a transfer race to another claim.
const maxTransferAttempts = 2

type ClaimOutcome string

const (
	ClaimOutcomeReclaim  ClaimOutcome = "reclaim"
	ClaimOutcomeTransfer ClaimOutcome = "transfer"
)

// ClaimResult is the key a member ended up holding and how they got it.
type ClaimResult struct {
	Key           model.Key    `json:"key"`
	Outcome       ClaimOutcome `json:"outcome"`
	PreviousOwner string       `json:"previous_owner,omitempty"`
}

type ClaimService interface {
	Claim(ctx context.Context, memberID, titleName string, platform model.Platform, guildID string) (*ClaimResult, error)
}

type claimService struct {
	uow       repository.UnitOfWorkFactory
	cooldown  CooldownPolicy
	selection SelectionPolicy
	now       func() time.Time
}

// NewClaimService wires the allocation engine. A nil now defaults to the UTC wall clock.
func NewClaimService(
	uow repository.UnitOfWorkFactory,
	cooldown CooldownPolicy,
	selection SelectionPolicy,
	now func() time.Time,
) ClaimService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &claimService{
		uow:       uow,
		cooldown:  cooldown,
		selection: selection,
		now:       now,
	}
}

func (s *claimService) Claim(
	ctx context.Context, memberID, titleName string, platform model.Platform, guildID string,
) (*ClaimResult, error) {
	titleName = strings.TrimSpace(titleName)
	if memberID == "" || guildID == "" || titleName == "" {
		return nil, ErrInvalidArgument
	}
	if !platform.Valid() {
		return nil, model.ErrInvalidPlatform
	}

	var result *ClaimResult
	err := repository.Within(ctx, s.uow, func(ctx context.Context, store repository.InventoryStore) error {
		var err error
		result, err = s.claim(ctx, store, memberID, titleName, platform, guildID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *claimService) claim(
	ctx context.Context,
	store repository.InventoryStore,
	memberID, titleName string,
	platform model.Platform,
	guildID string,
) (*ClaimResult, error) {
	if _, err := store.GetOrCreateMember(ctx, memberID); err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	// Held until commit: a concurrent claim by the same member waits here and then sees
	// the last claim this one records.
	member, err := store.GetMemberForUpdate(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("lock member: %w", err)
	}
	if _, err := store.GetTitle(ctx, titleName); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTitleNotFound
		}
		return nil, fmt.Errorf("get title: %w", err)
	}
	if _, err := store.GetOrCreateGuild(ctx, guildID); err != nil {
		return nil, fmt.Errorf("get guild: %w", err)
	}

	// 1. Reclaim: the member already holds a matching key.
	own, err := store.FindMemberKey(ctx, memberID, titleName, platform)
	switch {
	case err == nil:
		return &ClaimResult{Key: *own, Outcome: ClaimOutcomeReclaim}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("find member key: %w", err)
	}

	// 2. Cooldown applies to transfers only.
	now := s.now()
	if !s.cooldown.Allowed(member.LastClaimAt, now) {
		return nil, &ClaimRejectedError{
			Reason:     RejectCooldown,
			RetryAfter: s.cooldown.Remaining(member.LastClaimAt, now),
		}
	}

	// 3-5. Pick from the pool and transfer, retrying once if another claim won the key.
	for attempt := 0; attempt < maxTransferAttempts; attempt++ {
		pool, err := store.FindGuildPoolKeys(ctx, guildID, titleName, platform, memberID)
		if err != nil {
			return nil, fmt.Errorf("find guild pool: %w", err)
		}
		if len(pool) == 0 {
			return nil, &ClaimRejectedError{Reason: RejectNoSupply}
		}

		picked, err := s.selection.Pick(pool)
		if err != nil {
			return nil, fmt.Errorf("select key: %w", err)
		}

		previousOwner := picked.OwnerID
		err = store.TransferOwnership(ctx, picked.ID, previousOwner, memberID)
		if errors.Is(err, repository.ErrOwnershipConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("transfer key: %w", err)
		}
		if err := store.UpdateLastClaim(ctx, memberID, now); err != nil {
			return nil, fmt.Errorf("update last claim: %w", err)
		}

		picked.OwnerID = memberID
		return &ClaimResult{
			Key:           picked,
			Outcome:       ClaimOutcomeTransfer,
			PreviousOwner: previousOwner,
		}, nil
	}

	return nil, &ClaimRejectedError{Reason: RejectNoSupply}
}
