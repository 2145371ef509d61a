package models

import "time"

type UserRole string

type UserStatus string

const (
	RoleUser  UserRole = "USER"
	RoleStaff UserRole = "STAFF"
	RoleAdmin UserRole = "ADMIN"

	StatusActive  UserStatus = "ACTIVE"
	StatusBlocked UserStatus = "BLOCKED"

	UserEntity = "user"
)

type User struct {
	ID                 string     `bson:"_id" json:"_id"`
	Name               string     `bson:"name" json:"name"`
	Email              string     `bson:"email" json:"email"`
	PasswordHash       string     `bson:"passwordHash,omitempty" json:"-"`
	StudentID          string     `bson:"studentId,omitempty" json:"studentId,omitempty"`
	Role               UserRole   `bson:"role" json:"role"`
	Status             UserStatus `bson:"status" json:"status"`
	NeedsPasswordReset bool       `bson:"needsPasswordReset" json:"needsPasswordReset"`
	CreatedAt          time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time  `bson:"updatedAt" json:"updatedAt"`
}

var ValidUserRoles = map[string]bool{
	string(RoleUser):  true,
	string(RoleStaff): true,
	string(RoleAdmin): true,
}

func IsValidUserRole(role string) bool {
	return ValidUserRoles[role]
}
