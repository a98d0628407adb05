package domain

import "time"

// UserRole enumerates facility staff functions.
type UserRole string

const (
	RoleTechnician UserRole = "technician"
	RoleEngineer   UserRole = "engineer"
	RoleManager    UserRole = "manager"
	RoleBMS        UserRole = "bms"
	RoleAdmin      UserRole = "admin"
)

// UserStatus represents account lifecycle states.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// User is the single account model for requesters and facility staff.
// Staff membership is a flag rather than a separate entity; a staff
// comment is what starts a ticket's first-response clock.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         UserRole
	Phone        string
	Department   string
	IsStaff      bool
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName returns the display name, falling back to the username.
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}
