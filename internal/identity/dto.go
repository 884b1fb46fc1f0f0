package identity

import (
	"strings"
	"time"

	"github.com/angelmondragon/mcn-showcase/internal/checkout"
	"github.com/angelmondragon/mcn-showcase/pkg/enums"
)

// LoginRequest captures the credentials sent to the login endpoints.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest captures a visitor sign-up.
type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,max=80"`
	LastName  string `json:"last_name" validate:"required,max=80"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty" validate:"max=32"`
	Password  string `json:"password" validate:"required,min=6,max=128"`
}

// ProfilePatch merges non-empty fields into the profile.
type ProfilePatch struct {
	FirstName string `json:"first_name,omitempty" validate:"max=80"`
	LastName  string `json:"last_name,omitempty" validate:"max=80"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty" validate:"max=32"`
}

// Profile is the public view of a user; it never carries the password.
type Profile struct {
	ID        int              `json:"id"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone,omitempty"`
	Role      enums.MemberRole `json:"role"`
}

// IsAdmin reports whether the profile belongs to back-office staff.
func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == enums.MemberRoleAdmin
}

// IsIdentified reports whether a profile is present. A nil profile is an anonymous visitor.
func (p *Profile) IsIdentified() bool {
	return p != nil
}

// CurrentBuyer exposes the profile as checkout prefill data.
func (p *Profile) CurrentBuyer() (checkout.BuyerInfo, bool) {
	if p == nil {
		return checkout.BuyerInfo{}, false
	}
	return checkout.BuyerInfo{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
	}, true
}

func (p Profile) merge(patch ProfilePatch) Profile {
	if v := strings.TrimSpace(patch.FirstName); v != "" {
		p.FirstName = v
	}
	if v := strings.TrimSpace(patch.LastName); v != "" {
		p.LastName = v
	}
	if v := normalizeEmail(patch.Email); v != "" {
		p.Email = v
	}
	if v := strings.TrimSpace(patch.Phone); v != "" {
		p.Phone = v
	}
	return p
}

// Session is returned by login and register.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        Profile   `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
