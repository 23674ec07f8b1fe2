package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// RoleDefinition is a registered marketplace role and its capability set.
type RoleDefinition struct {
	bun.BaseModel `bun:"table:buygo_roles"`

	Name         string    `bun:"name,pk"`
	Label        string    `bun:"label"`
	Capabilities []string  `bun:"capabilities,type:jsonb"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// UserRole assigns a role label to a platform user.
type UserRole struct {
	bun.BaseModel `bun:"table:buygo_user_roles"`

	ID        int64     `bun:",pk,autoincrement"`
	UserID    int64     `bun:"user_id"`
	Role      string    `bun:"role"`
	GrantedAt time.Time `bun:"granted_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
