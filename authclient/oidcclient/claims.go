package oidcclient

import (
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/visitor-session/users"
)

// identityClaims covers the standard OIDC profile claims plus the dashboard's
// role and school claims. The same shape is used for ID tokens and UserInfo.
type identityClaims struct {
	Sub         string `json:"sub"`
	Email       string `json:"email"`
	GivenName   string `json:"given_name"`
	FamilyName  string `json:"family_name"`
	PhoneNumber string `json:"phone_number"`
	Picture     string `json:"picture"`
	Role        string `json:"role"`
	SchoolID    string `json:"school_id"`
	UpdatedAt   int64  `json:"updated_at"`
}

func (c identityClaims) user() (*users.User, error) {
	if c.Sub == "" {
		return nil, errors.New("missing sub claim")
	}
	role, err := users.ParseRole(c.Role)
	if err != nil {
		return nil, errors.Wrap(err, "role claim")
	}
	u := &users.User{
		ID:        c.Sub,
		Email:     c.Email,
		FirstName: c.GivenName,
		LastName:  c.FamilyName,
		Role:      role,
		Phone:     c.PhoneNumber,
		Avatar:    c.Picture,
		IsActive:  true,
		SchoolID:  c.SchoolID,
	}
	if c.UpdatedAt > 0 {
		u.UpdatedAt = time.Unix(c.UpdatedAt, 0).UTC()
	}
	return u, nil
}
