package identity

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/angelmondragon/mcn-showcase/pkg/config"
	"github.com/angelmondragon/mcn-showcase/pkg/enums"
	"github.com/angelmondragon/mcn-showcase/pkg/security"
	"go.uber.org/multierr"
)

//go:embed fixtures/users.json
var fixtures embed.FS

type userRecord struct {
	ID        int              `json:"id"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone,omitempty"`
	Password  string           `json:"password"`
	Role      enums.MemberRole `json:"role"`
}

type user struct {
	profile      Profile
	passwordHash string
}

// Directory is the in-memory user list. Registrations live until the process exits.
type Directory struct {
	mu    sync.RWMutex
	users []user
	pwCfg config.PasswordConfig
}

// LoadDirectory reads the user fixture from path, or the embedded fixture when empty,
// and hashes plain passwords with argon2id.
func LoadDirectory(path string, pwCfg config.PasswordConfig) (*Directory, error) {
	var (
		raw []byte
		err error
	)
	if strings.TrimSpace(path) != "" {
		raw, err = os.ReadFile(path)
	} else {
		raw, err = fixtures.ReadFile("fixtures/users.json")
	}
	if err != nil {
		return nil, fmt.Errorf("reading users fixture: %w", err)
	}

	var records []userRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decoding users fixture: %w", err)
	}
	return newDirectory(records, pwCfg)
}

func newDirectory(records []userRecord, pwCfg config.PasswordConfig) (*Directory, error) {
	d := &Directory{pwCfg: pwCfg, users: make([]user, 0, len(records))}
	seen := make(map[string]struct{}, len(records))

	var errs error
	for _, rec := range records {
		email := normalizeEmail(rec.Email)
		if email == "" {
			errs = multierr.Append(errs, fmt.Errorf("user %d: email is required", rec.ID))
			continue
		}
		if _, dup := seen[email]; dup {
			errs = multierr.Append(errs, fmt.Errorf("user %d: duplicate email %s", rec.ID, email))
			continue
		}
		if !rec.Role.IsValid() {
			errs = multierr.Append(errs, fmt.Errorf("user %d: invalid role %q", rec.ID, rec.Role))
			continue
		}
		if !security.IsHash(rec.Password) {
			hashed, err := security.HashPassword(rec.Password, pwCfg)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("user %d: %w", rec.ID, err))
				continue
			}
			rec.Password = hashed
		}
		seen[email] = struct{}{}
		d.users = append(d.users, user{
			profile: Profile{
				ID:        rec.ID,
				FirstName: strings.TrimSpace(rec.FirstName),
				LastName:  strings.TrimSpace(rec.LastName),
				Email:     email,
				Phone:     strings.TrimSpace(rec.Phone),
				Role:      rec.Role,
			},
			passwordHash: rec.Password,
		})
	}
	if errs != nil {
		return nil, errs
	}
	return d, nil
}

func (d *Directory) findByEmail(email string) (user, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	email = normalizeEmail(email)
	for _, u := range d.users {
		if u.profile.Email == email {
			return u, true
		}
	}
	return user{}, false
}

func (d *Directory) findByID(id int) (Profile, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.profile.ID == id {
			return u.profile, true
		}
	}
	return Profile{}, false
}

func (d *Directory) add(p Profile, password string) (Profile, error) {
	hash, err := security.HashPassword(password, d.pwCfg)
	if err != nil {
		return Profile{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.profile.Email == p.Email {
			return Profile{}, errEmailTaken
		}
	}
	// ids follow the fixture numbering: one past the highest known id
	next := len(d.users) + 1
	for _, u := range d.users {
		if u.profile.ID >= next {
			next = u.profile.ID + 1
		}
	}
	p.ID = next
	d.users = append(d.users, user{profile: p, passwordHash: hash})
	return p, nil
}

func (d *Directory) update(p Profile) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	pos := -1
	for i, u := range d.users {
		if u.profile.ID == p.ID {
			pos = i
			continue
		}
		if u.profile.Email == p.Email {
			return errEmailTaken
		}
	}
	if pos < 0 {
		return errUserNotFound
	}
	d.users[pos].profile = p
	return nil
}

// Len returns the number of known users.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}
