package users

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/visitor-session/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// RoleType is the permission class attached to a dashboard user
type RoleType string

const (
	RoleAdmin     RoleType = "admin"     // Full dashboard access, including audit logs and settings
	RoleSecurity  RoleType = "security"  // Watchlists, blacklist and incident handling
	RoleFrontDesk RoleType = "frontdesk" // Visitor check-in, badges and appointments
	RoleTeacher   RoleType = "teacher"   // Own appointments and expected visitors
)

// Roles lists every valid role in display order.
var Roles = []RoleType{RoleAdmin, RoleSecurity, RoleFrontDesk, RoleTeacher}

func (r RoleType) IsValid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (RoleType, error) {
	r := RoleType(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User is the identity record returned by the dashboard API and mirrored into the persisted session.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // never serialize
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Role         RoleType   `json:"role"`
	Phone        string     `json:"phone,omitempty"`
	Avatar       string     `json:"avatar,omitempty"`
	IsActive     bool       `json:"isActive"`
	SchoolID     string     `json:"schoolId,omitempty"` // Organization the user belongs to
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasRole reports whether the user holds one of roles.
func (u *User) HasRole(roles ...RoleType) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so snapshots can't alias the live record.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastLogin != nil {
		c.LastLogin = utils.Ptr(*u.LastLogin)
	}
	return &c
}

// Equal compares the serialized form of two users, which is what the persisted
// session holds.
func (u *User) Equal(other *User) bool {
	if u == nil || other == nil {
		return u == other
	}
	a, errA := json.Marshal(u)
	b, errB := json.Marshal(other)
	if errA != nil || errB != nil {
		return false
	}
	return string(a) == string(b)
}

// ProfilePatch is a partial profile update. Only non-nil fields are applied.
type ProfilePatch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
}

func (p ProfilePatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil && p.Avatar == nil
}

// ApplyTo writes the set fields into u and reports whether anything changed.
func (p ProfilePatch) ApplyTo(u *User) bool {
	changed := false
	for _, f := range []struct {
		dst *string
		src *string
	}{
		{&u.FirstName, p.FirstName},
		{&u.LastName, p.LastName},
		{&u.Phone, p.Phone},
		{&u.Avatar, p.Avatar},
	} {
		before := *f.dst
		if utils.Assign(f.dst, f.src) && before != *f.dst {
			changed = true
		}
	}
	return changed
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
