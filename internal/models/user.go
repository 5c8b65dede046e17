package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a platform authorization role. Apart from RoleSuperAdmin, roles are derived from memberships.
type Role string

const (
	RoleSuperAdmin        Role = "Super Admin"
	RoleOrganizationAdmin Role = "Organization Admin"
	RoleDepartmentalAdmin Role = "Departmental Admin"
	RoleMember            Role = "Member"
	RoleUser              Role = "User"
)

// User is a platform participant.
type User struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Password      string    `json:"-"`
	Name          string    `json:"name"`
	Gender        string    `json:"gender"`
	PhoneNumber   string    `json:"phone_number"`
	State         string    `json:"state"`
	Nationality   string    `json:"nationality"`
	Profession    string    `json:"profession"`
	Interests     []string  `json:"interests"`
	Roles         []Role    `json:"roles"`
	Organizations IDs       `json:"organizations"`
	Departments   IDs       `json:"departments"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasRole reports whether the user currently holds role.
func (u *User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user holds at least one of roles.
func (u *User) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (u User) Clone() User {
	u.Interests = append([]string(nil), u.Interests...)
	u.Roles = append([]Role(nil), u.Roles...)
	u.Organizations = u.Organizations.Clone()
	u.Departments = u.Departments.Clone()
	return u
}

// UserPublic is User without credentials and membership internals, for listings.
type UserPublic struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Roles     []Role    `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Roles:     u.Roles,
		CreatedAt: u.CreatedAt,
	}
}
