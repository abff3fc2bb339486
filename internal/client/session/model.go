package session

import (
	"errors"

	"github.com/dmitrijs2005/cuponcode/internal/common"
	"github.com/google/uuid"
)

var (
	// ErrIncompleteSession is returned by Set for an identity that lacks a
	// required field.
	ErrIncompleteSession = errors.New("incomplete session")
)

// Role is the marketplace role of the logged-in user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Session is the persisted identity. LastActivity is in unix milliseconds.
type Session struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	Coins        int64  `json:"coins"`
	Token        string `json:"token"`
	LastActivity int64  `json:"lastActivity"`
}

// IsAdmin reports whether the session belongs to an administrator.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

func (s Session) validate() error {
	if s.ID == "" || s.Username == "" || s.Email == "" || !s.Role.Valid() || s.Coins < 0 {
		return ErrIncompleteSession
	}
	return nil
}

// Patch lists the fields Update should overwrite; nil fields are kept.
type Patch struct {
	Username *string
	Email    *string
	Role     *Role
	Coins    *int64
	Token    *string
}

// CoinsPatch is shorthand for a Patch that only sets the coin balance.
func CoinsPatch(coins int64) Patch {
	return Patch{Coins: &coins}
}

func (p Patch) apply(s *Session) {
	if p.Username != nil {
		s.Username = *p.Username
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.Role != nil {
		s.Role = *p.Role
	}
	if p.Coins != nil {
		s.Coins = *p.Coins
	}
	if p.Token != nil {
		s.Token = *p.Token
	}
}

// newLocalToken returns a correlation handle for sessions whose identity
// arrived without a server-issued token. The backend does not treat it as
// a credential.
func newLocalToken() string {
	return common.LocalTokenPrefix + uuid.NewString()
}
