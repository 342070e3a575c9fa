package models

import "time"

// UserRole distinguishes the two account types offered at signup.
type UserRole string

const (
	RoleParent  UserRole = "parent"
	RoleTeacher UserRole = "teacher"
)

// Valid reports whether the role is one of the accepted values.
func (r UserRole) Valid() bool {
	return r == RoleParent || r == RoleTeacher
}

// User represents an account stored in the users table.
type User struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	Name           string    `db:"name" json:"name"`
	Role           UserRole  `db:"role" json:"role"`
	ProfilePicLink string    `db:"profile_pic_link" json:"profile_pic_link"`
	Mobile         string    `db:"mobile" json:"mobile"`
	AvatarIndex    int       `db:"avatar_index" json:"avatar_index"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// UserInfo is the public profile shape returned by auth endpoints.
type UserInfo struct {
	ID             string   `json:"id"`
	Email          string   `json:"email"`
	Name           string   `json:"name"`
	Role           UserRole `json:"role"`
	ProfilePicLink string   `json:"profile_pic_link"`
	Mobile         string   `json:"mobile"`
	AvatarIndex    int      `json:"avatar_index"`
}

// Info projects the stored row onto its public shape.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		ProfilePicLink: u.ProfilePicLink,
		Mobile:         u.Mobile,
		AvatarIndex:    u.AvatarIndex,
	}
}
