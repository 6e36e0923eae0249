// Package identity models the owner of a cart or order: an authenticated user
// or an anonymous browser session.
package identity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
)

// Kind distinguishes the two identity variants.
type Kind int

const (
	KindUser Kind = iota + 1
	KindAnonymous
)

// Identity is either User(id) or Anonymous(token). The zero value is invalid.
type Identity struct {
	kind   Kind
	userID uuid.UUID
	token  string
	role   enums.UserRole
}

// User builds an authenticated identity.
func User(id uuid.UUID, role enums.UserRole) Identity {
	if !role.IsValid() {
		role = enums.UserRoleCustomer
	}
	return Identity{kind: KindUser, userID: id, role: role}
}

// Anonymous builds a session-token identity.
func Anonymous(token string) Identity {
	return Identity{kind: KindAnonymous, token: strings.TrimSpace(token)}
}

func (i Identity) Kind() Kind { return i.kind }

// IsValid reports whether the identity carries a usable owner key.
func (i Identity) IsValid() bool {
	switch i.kind {
	case KindUser:
		return i.userID != uuid.Nil
	case KindAnonymous:
		return i.token != ""
	default:
		return false
	}
}

// UserID returns the user id when the identity is a user.
func (i Identity) UserID() (uuid.UUID, bool) {
	return i.userID, i.kind == KindUser
}

// SessionToken returns the token when the identity is anonymous.
func (i Identity) SessionToken() (string, bool) {
	return i.token, i.kind == KindAnonymous
}

// IsAdmin reports whether the identity is a user with the admin role.
func (i Identity) IsAdmin() bool {
	return i.kind == KindUser && i.role == enums.UserRoleAdmin
}

func (i Identity) Role() enums.UserRole {
	return i.role
}

// UserIDPtr and SessionTokenPtr map the identity onto nullable owner columns.
func (i Identity) UserIDPtr() *uuid.UUID {
	if i.kind != KindUser {
		return nil
	}
	id := i.userID
	return &id
}

func (i Identity) SessionTokenPtr() *string {
	if i.kind != KindAnonymous {
		return nil
	}
	token := i.token
	return &token
}

// Scope narrows a query on a table with user_id and session_token owner columns.
func (i Identity) Scope(db *gorm.DB) *gorm.DB {
	switch i.kind {
	case KindUser:
		return db.Where("user_id = ?", i.userID)
	case KindAnonymous:
		return db.Where("session_token = ?", i.token)
	default:
		return db.Where("1 = 0")
	}
}

// Owns reports whether the identity matches the given owner columns.
func (i Identity) Owns(userID *uuid.UUID, sessionToken *string) bool {
	switch i.kind {
	case KindUser:
		return userID != nil && *userID == i.userID
	case KindAnonymous:
		return sessionToken != nil && *sessionToken == i.token
	default:
		return false
	}
}

// String renders a log-safe label; anonymous tokens are truncated.
func (i Identity) String() string {
	switch i.kind {
	case KindUser:
		return "user:" + i.userID.String()
	case KindAnonymous:
		if len(i.token) > 8 {
			return "anon:" + i.token[:8]
		}
		return "anon:" + i.token
	default:
		return "unknown"
	}
}

// Metadata returns gateway-safe identity fields.
func (i Identity) Metadata() map[string]string {
	switch i.kind {
	case KindUser:
		return map[string]string{"user_id": i.userID.String()}
	case KindAnonymous:
		return map[string]string{"session": i.String()}
	default:
		return map[string]string{}
	}
}

// NewSessionToken mints a random anonymous session token.
func NewSessionToken() string {
	return uuid.NewString()
}

// FromOwner rebuilds an identity from stored owner columns.
func FromOwner(userID *uuid.UUID, sessionToken *string) (Identity, error) {
	if userID != nil && *userID != uuid.Nil {
		return User(*userID, enums.UserRoleCustomer), nil
	}
	if sessionToken != nil && strings.TrimSpace(*sessionToken) != "" {
		return Anonymous(*sessionToken), nil
	}
	return Identity{}, fmt.Errorf("owner columns are empty")
}
