package models

import "time"

// Role values assigned to accounts. The actor prefix a registration came
// through decides the role; role decides the landing location after login.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super-admin"
)

// User represents an account in the users collection. Exactly one of
// Email/PhoneNumber may be empty, depending on the channel the account
// was registered through.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email,omitempty" json:"email,omitempty"`
	PhoneNumber  string    `bson:"phone_number,omitempty" json:"phoneNumber,omitempty"`
	PasswordHash string    `bson:"password_hash,omitempty" json:"-"`
	Gender       string    `bson:"gender,omitempty" json:"gender,omitempty"`
	Role         string    `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updatedAt"`
}

// Identifier returns the account identifier for the given channel.
func (u *User) Identifier(channel Channel) string {
	if channel == ChannelEmail {
		return u.Email
	}
	return u.PhoneNumber
}

// IsBackOffice reports whether the account belongs to one of the
// privileged back-office roles.
func (u *User) IsBackOffice() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}
