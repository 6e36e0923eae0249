package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bulkwear-backend/pkg/enums"
)

func TestUserIdentity(t *testing.T) {
	id := uuid.New()
	ident := User(id, enums.UserRoleAdmin)

	got, ok := ident.UserID()
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.True(t, ident.IsValid())
	assert.True(t, ident.IsAdmin())
	assert.Nil(t, ident.SessionTokenPtr())
	assert.True(t, ident.Owns(&id, nil))

	other := uuid.New()
	assert.False(t, ident.Owns(&other, nil))
}

func TestUserIdentityDefaultsUnknownRole(t *testing.T) {
	ident := User(uuid.New(), enums.UserRole("root"))
	assert.Equal(t, enums.UserRoleCustomer, ident.Role())
	assert.False(t, ident.IsAdmin())
}

func TestAnonymousIdentity(t *testing.T) {
	ident := Anonymous(" token-abcdefghij ")

	token, ok := ident.SessionToken()
	require.True(t, ok)
	assert.Equal(t, "token-abcdefghij", token)
	assert.Nil(t, ident.UserIDPtr())
	assert.Equal(t, "anon:token-ab", ident.String())
	assert.True(t, ident.Owns(nil, &token))
	assert.False(t, ident.IsAdmin())
}

func TestZeroIdentityIsInvalid(t *testing.T) {
	var ident Identity
	assert.False(t, ident.IsValid())
	assert.False(t, Anonymous("  ").IsValid())
	assert.False(t, ident.Owns(nil, nil))
}

func TestFromOwner(t *testing.T) {
	id := uuid.New()
	ident, err := FromOwner(&id, nil)
	require.NoError(t, err)
	assert.Equal(t, KindUser, ident.Kind())

	token := "abc"
	ident, err = FromOwner(nil, &token)
	require.NoError(t, err)
	assert.Equal(t, KindAnonymous, ident.Kind())

	_, err = FromOwner(nil, nil)
	assert.Error(t, err)
}
