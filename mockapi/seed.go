package mockapi

import (
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/visitor-session/users"
)

// DemoSchoolID is the organization every seeded account belongs to.
const DemoSchoolID = "school-001"

// DemoAccount is a seeded login.
type DemoAccount struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      users.RoleType
	Phone     string
}

// DemoAccounts has one staff member per role.
var DemoAccounts = []DemoAccount{
	{"admin@school.com", "admin123", "Alex", "Morgan", users.RoleAdmin, "555-0100"},
	{"security@school.com", "security123", "Sam", "Rivera", users.RoleSecurity, "555-0101"},
	{"frontdesk@school.com", "frontdesk123", "Jordan", "Lee", users.RoleFrontDesk, "555-0102"},
	{"teacher@school.com", "teacher123", "Taylor", "Brooks", users.RoleTeacher, "555-0103"},
}

// SeedDemoAccounts stores the demo accounts with bcrypt-hashed passwords.
func SeedDemoAccounts(repo users.UserRepo, now time.Time) error {
	for _, a := range DemoAccounts {
		hash, err := users.HashPassword(a.Password)
		if err != nil {
			return errors.Wrapf(err, "[SeedDemoAccounts] hash %s", a.Email)
		}
		if err := repo.Upsert(&users.User{
			Email:        a.Email,
			PasswordHash: hash,
			FirstName:    a.FirstName,
			LastName:     a.LastName,
			Role:         a.Role,
			Phone:        a.Phone,
			IsActive:     true,
			SchoolID:     DemoSchoolID,
			CreatedAt:    now.UTC(),
			UpdatedAt:    now.UTC(),
		}); err != nil {
			return errors.Wrapf(err, "[SeedDemoAccounts] upsert %s", a.Email)
		}
	}
	return nil
}
