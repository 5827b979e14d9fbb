package entity

import "time"

type UserRole string

const (
	RoleDoctor UserRole = "doctor"
	RoleAdmin  UserRole = "admin"
	RoleStaff  UserRole = "staff"
)

func (r UserRole) Valid() bool {
	return r == RoleDoctor || r == RoleAdmin || r == RoleStaff
}

type User struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	FullName       string    `db:"full_name" json:"fullName"`
	Role           UserRole  `db:"role" json:"role"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
