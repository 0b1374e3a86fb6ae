package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Title struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(256);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Title) TableName() string { return "titles" }

func (t *Title) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Less orders titles by name, which is how listings are grouped.
func (t Title) Less(other Title) bool { return t.Name < other.Name }
