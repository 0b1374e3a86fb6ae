package model

import "time"

// Member is identified by the id of the chat platform account it mirrors.
// LastClaimAt is only ever set by a successful transfer.
type Member struct {
	ID          string     `gorm:"type:varchar(64);primaryKey" json:"id"`
	LastClaimAt *time.Time `json:"last_claim_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Member) TableName() string { return "members" }
