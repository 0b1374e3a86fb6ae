package model

import "time"

type Guild struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Guild) TableName() string { return "guilds" }

// GuildMember is the join row between guilds and members.
type GuildMember struct {
	GuildID   string    `gorm:"type:varchar(64);primaryKey" json:"guild_id"`
	MemberID  string    `gorm:"type:varchar(64);primaryKey;index" json:"member_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (GuildMember) TableName() string { return "guild_members" }
