package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrTitleNotFound      = errors.New("title not found")
	ErrKeyNotFound        = errors.New("key not found")
	ErrKeyExists          = errors.New("key already registered")
	ErrAlreadyGuildMember = errors.New("member already in guild")
	ErrNotGuildMember     = errors.New("member not in guild")
	ErrClaimRejected      = errors.New("claim rejected")
	ErrNoCandidates       = errors.New("no candidates to select from")
)

type RejectReason string

const (
	RejectCooldown RejectReason = "cooldown"
	RejectNoSupply RejectReason = "no_supply"
)

// ClaimRejectedError is the expected "not now" outcome of a claim. It matches ErrClaimRejected.
type ClaimRejectedError struct {
	Reason     RejectReason
	RetryAfter time.Duration // only set for RejectCooldown
}

func (e *ClaimRejectedError) Error() string {
	if e.Reason == RejectCooldown && e.RetryAfter > 0 {
		return fmt.Sprintf("claim rejected: %s, retry in %s", e.Reason, e.RetryAfter.Round(time.Second))
	}
	return fmt.Sprintf("claim rejected: %s", e.Reason)
}

func (e *ClaimRejectedError) Is(target error) bool {
	return target == ErrClaimRejected
}

// RejectReasonOf returns the reason of a rejected claim, or "" when err is not one.
func RejectReasonOf(err error) RejectReason {
	var rejected *ClaimRejectedError
	if errors.As(err, &rejected) {
		return rejected.Reason
	}
	return ""
}
