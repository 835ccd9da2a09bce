package models

import "time"

// SuperAdminSlug is the reserved role slug seeded once at bootstrap.
const SuperAdminSlug = "super_admin"

type User struct {
	UUID          string    `gorm:"primaryKey;size:36" json:"uuid"`
	Email         string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"not null" json:"-"`
	RoleUUID      *string   `gorm:"size:36;index" json:"roleUuid,omitempty"`
	Role          *Role     `gorm:"foreignKey:RoleUUID;references:UUID" json:"role,omitempty"`
	OtherData     JSON      `gorm:"type:json" json:"otherData,omitempty"`
	IsRecoverable bool      `gorm:"not null;default:false" json:"isRecoverable"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Role struct {
	UUID      string    `gorm:"primaryKey;size:36" json:"uuid"`
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Permission struct {
	UUID      string    `gorm:"primaryKey;size:36" json:"uuid"`
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RolePermissionLink is the role<->permission join row. The composite
// unique index backs the at-most-one-link-per-pair invariant that the
// reconciliation algorithm also maintains.
type RolePermissionLink struct {
	UUID           string     `gorm:"primaryKey;size:36" json:"uuid"`
	RoleUUID       string     `gorm:"size:36;not null;uniqueIndex:idx_role_permission" json:"roleUuid"`
	PermissionUUID string     `gorm:"size:36;not null;uniqueIndex:idx_role_permission" json:"permissionUuid"`
	Role           Role       `gorm:"foreignKey:RoleUUID;references:UUID;constraint:OnDelete:CASCADE" json:"-"`
	Permission     Permission `gorm:"foreignKey:PermissionUUID;references:UUID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type LoginToken struct {
	UUID      string    `gorm:"primaryKey;size:36" json:"uuid"`
	UserUUID  string    `gorm:"size:36;not null;index" json:"userUuid"`
	User      User      `gorm:"foreignKey:UserUUID;references:UUID;constraint:OnDelete:CASCADE" json:"-"`
	Token     string    `gorm:"not null;index" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ResetPasswordToken struct {
	UUID      string    `gorm:"primaryKey;size:36" json:"uuid"`
	UserUUID  string    `gorm:"size:36;not null;index" json:"userUuid"`
	User      User      `gorm:"foreignKey:UserUUID;references:UUID;constraint:OnDelete:CASCADE" json:"-"`
	Token     string    `gorm:"not null;index" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type SecurityQuestion struct {
	UUID        string    `gorm:"primaryKey;size:36" json:"uuid"`
	UserUUID    string    `gorm:"size:36;not null;uniqueIndex" json:"userUuid"`
	User        User      `gorm:"foreignKey:UserUUID;references:UUID;constraint:OnDelete:CASCADE" json:"-"`
	Question1   int       `gorm:"not null" json:"question1"`
	Answer1Hash string    `gorm:"not null" json:"-"`
	Question2   int       `gorm:"not null" json:"question2"`
	Answer2Hash string    `gorm:"not null" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PermissionSeed is the append-only log of applied seed payload hashes.
// The most recent row's hash gates whether a reseed is a no-op.
type PermissionSeed struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Hash      string    `gorm:"size:64;not null;index" json:"hash"`
	CreatedAt time.Time `json:"createdAt"`
}

// All lists every entity for schema migration, parents before children.
func All() []any {
	return []any{
		&Role{}, &Permission{}, &User{},
		&RolePermissionLink{}, &LoginToken{}, &ResetPasswordToken{},
		&SecurityQuestion{}, &PermissionSeed{},
	}
}
