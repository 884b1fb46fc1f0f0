// Package identity authenticates visitors against the user fixture and keeps their
// session profile.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/angelmondragon/mcn-showcase/pkg/auth"
	"github.com/angelmondragon/mcn-showcase/pkg/auth/session"
	"github.com/angelmondragon/mcn-showcase/pkg/config"
	"github.com/angelmondragon/mcn-showcase/pkg/enums"
	pkgerrors "github.com/angelmondragon/mcn-showcase/pkg/errors"
	"github.com/angelmondragon/mcn-showcase/pkg/security"
)

const invalidCredentialsMessage = "invalid email or password"

var (
	errEmailTaken   = errors.New("email already registered")
	errUserNotFound = errors.New("user not found")
)

// Service defines the behavior needed by the auth controllers and the shop.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*Session, error)
	AdminLogin(ctx context.Context, req LoginRequest) (*Session, error)
	Register(ctx context.Context, req RegisterRequest) (*Session, error)
	Logout(ctx context.Context, accessID string) error
	Profile(ctx context.Context, accessID string) (*Profile, error)
	UpdateProfile(ctx context.Context, accessID string, patch ProfilePatch) (*Profile, error)
}

// SessionStore persists profiles keyed by access id.
type SessionStore interface {
	Open(ctx context.Context, accessID string, payload any) error
	Load(ctx context.Context, accessID string, dest any) error
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	users    *Directory
	sessions SessionStore
	jwtCfg   config.JWTConfig
	now      func() time.Time
}

// ServiceParams bundles the dependencies required to build an identity service.
type ServiceParams struct {
	Directory *Directory
	Sessions  SessionStore
	JWTConfig config.JWTConfig
}

func NewService(params ServiceParams) (Service, error) {
	if params.Directory == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if params.JWTConfig.TTL() <= 0 {
		return nil, fmt.Errorf("jwt ttl must be positive")
	}
	return &service{
		users:    params.Directory,
		sessions: params.Sessions,
		jwtCfg:   params.JWTConfig,
		now:      time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	u, err := s.authenticate(req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, u.profile)
}

func (s *service) AdminLogin(ctx context.Context, req LoginRequest) (*Session, error) {
	u, err := s.authenticate(req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if u.profile.Role != enums.MemberRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	return s.open(ctx, u.profile)
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	profile := Profile{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     normalizeEmail(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Role:      enums.MemberRoleUser,
	}
	if profile.Email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	created, err := s.users.add(profile, req.Password)
	if err != nil {
		if errors.Is(err, errEmailTaken) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "register user")
	}
	return s.open(ctx, created)
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Profile(ctx context.Context, accessID string) (*Profile, error) {
	var profile Profile
	if err := s.sessions.Load(ctx, accessID, &profile); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	// the session identifies the user; profile fields are read from the directory
	if current, ok := s.users.findByID(profile.ID); ok {
		profile = current
	}
	return &profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, accessID string, patch ProfilePatch) (*Profile, error) {
	current, err := s.Profile(ctx, accessID)
	if err != nil {
		return nil, err
	}
	updated := current.merge(patch)

	if err := s.users.update(updated); err != nil {
		switch {
		case errors.Is(err, errEmailTaken):
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		case errors.Is(err, errUserNotFound):
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	if err := s.sessions.Open(ctx, accessID, updated); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	return &updated, nil
}

func (s *service) authenticate(email, password string) (user, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return user{}, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	u, ok := s.users.findByEmail(email)
	if !ok {
		return user{}, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	valid, err := security.VerifyPassword(password, u.passwordHash)
	if err != nil {
		return user{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return user{}, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return u, nil
}

func (s *service) open(ctx context.Context, profile Profile) (*Session, error) {
	now := s.now().UTC()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: profile.ID,
		Email:  profile.Email,
		Role:   profile.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	if err := s.sessions.Open(ctx, accessID, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	return &Session{
		AccessToken: token,
		ExpiresAt:   now.Add(s.jwtCfg.TTL()),
		User:        profile,
	}, nil
}
