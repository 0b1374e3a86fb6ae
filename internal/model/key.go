package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Key is one activation code for a title on a platform. It always has exactly one owner.
type Key struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Platform  Platform  `gorm:"type:varchar(16);not null;index:idx_keys_owner_title_platform,priority:3" json:"platform"`
	TitleID   uuid.UUID `gorm:"type:uuid;not null;index:idx_keys_owner_title_platform,priority:2" json:"title_id"`
	Code      string    `gorm:"type:varchar(512);not null" json:"code"`
	OwnerID   string    `gorm:"type:varchar(64);not null;index:idx_keys_owner_title_platform,priority:1" json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title Title `gorm:"foreignKey:TitleID" json:"title"`
}

func (Key) TableName() string { return "keys" }

func (k *Key) BeforeCreate(*gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}
