package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"roster-console/internal/session/domain/model"
	sharederrors "roster-console/internal/shared/errors"

	"golang.org/x/crypto/bcrypt"
)

// Account is one entry of the static identity list
type Account struct {
	Identity model.Identity
	Hash     []byte
}

// Credential is a plaintext demo credential used to build an Account
type Credential struct {
	Email  string
	Secret string
	Name   string
	Role   model.Role
}

// DemoCredentials are the built-in demo identities
func DemoCredentials() []Credential {
	return []Credential{
		{Email: "admin@example.com", Secret: "admin123", Name: "Admin User", Role: model.RoleAdmin},
		{Email: "user@example.com", Secret: "user123", Name: "Regular User", Role: model.RoleUser},
	}
}

// ParseCredentials parses "email:secret:name:role" entries separated by commas
func ParseCredentials(list string) ([]Credential, error) {
	var out []Credential
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 4)
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid demo user entry %q: want email:secret:name:role", entry)
		}
		role := model.Role(strings.ToLower(parts[3]))
		if !role.Valid() {
			return nil, fmt.Errorf("invalid role %q for %s", parts[3], parts[0])
		}
		out = append(out, Credential{Email: parts[0], Secret: parts[1], Name: parts[2], Role: role})
	}
	if len(out) == 0 {
		return nil, errors.New("no demo users given")
	}
	return out, nil
}

// StaticVerifier checks credentials against a fixed list of bcrypt hashes.
// Identity ids are assigned in list order starting at 1.
type StaticVerifier struct {
	accounts map[string]Account
}

// NewStaticVerifier hashes creds with the given bcrypt cost
func NewStaticVerifier(creds []Credential, cost int) (*StaticVerifier, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	v := &StaticVerifier{accounts: make(map[string]Account, len(creds))}
	for i, c := range creds {
		hash, err := bcrypt.GenerateFromPassword([]byte(c.Secret), cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash secret for %s: %w", c.Email, err)
		}
		key := normalize(c.Email)
		if _, dup := v.accounts[key]; dup {
			return nil, fmt.Errorf("duplicate demo user %s", c.Email)
		}
		v.accounts[key] = Account{
			Identity: model.Identity{
				ID:    int64(i + 1),
				Email: c.Email,
				Name:  c.Name,
				Role:  c.Role,
			},
			Hash: hash,
		}
	}
	return v, nil
}

// Verify implements repository.Verifier
func (v *StaticVerifier) Verify(ctx context.Context, identifier, secret string) (*model.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acct, ok := v.accounts[normalize(identifier)]
	if !ok {
		return nil, sharederrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.Hash, []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, sharederrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare secret: %w", err)
	}
	id := acct.Identity
	return &id, nil
}

// Lookup returns the identity registered under id
func (v *StaticVerifier) Lookup(id int64) (*model.Identity, bool) {
	for _, acct := range v.accounts {
		if acct.Identity.ID == id {
			ident := acct.Identity
			return &ident, true
		}
	}
	return nil, false
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
