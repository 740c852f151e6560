package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	ch, err := ParseChannel("email")
	require.NoError(t, err)
	assert.Equal(t, ChannelEmail, ch)

	ch, err = ParseChannel("phone")
	require.NoError(t, err)
	assert.Equal(t, ChannelPhone, ch)

	_, err = ParseChannel("carrier-pigeon")
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"login", "signup", "verify"} {
		mode, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, Mode(s), mode)
	}

	_, err := ParseMode("register")
	assert.Error(t, err)
}

func TestActorKind(t *testing.T) {
	assert.Equal(t, "/user", ActorUser.Prefix())
	assert.Equal(t, "/admin", ActorAdmin.Prefix())
	assert.Equal(t, "/super-admin", ActorSuperAdmin.Prefix())

	assert.Equal(t, RoleAdmin, ActorAdmin.Role())
	assert.Equal(t, RoleSuperAdmin, ActorSuperAdmin.Role())
}

func TestUser_Identifier(t *testing.T) {
	u := &User{Email: "a@b.com", PhoneNumber: "+919876543210"}
	assert.Equal(t, "a@b.com", u.Identifier(ChannelEmail))
	assert.Equal(t, "+919876543210", u.Identifier(ChannelPhone))
}

func TestUser_IsBackOffice(t *testing.T) {
	assert.False(t, (&User{Role: RoleUser}).IsBackOffice())
	assert.True(t, (&User{Role: RoleAdmin}).IsBackOffice())
	assert.True(t, (&User{Role: RoleSuperAdmin}).IsBackOffice())
}

func TestRequestIdentifierSelection(t *testing.T) {
	send := &SendCodeRequest{Email: "a@b.com", PhoneNumber: "+919876543210"}
	assert.Equal(t, "a@b.com", send.Identifier(ChannelEmail))
	assert.Equal(t, "+919876543210", send.Identifier(ChannelPhone))

	verify := &VerifyCodeRequest{PhoneNumber: "+919876543210", Code: "123456"}
	assert.Equal(t, "+919876543210", verify.Identifier(ChannelPhone))

	register := &RegisterRequest{Name: "Asha", Email: "a@b.com"}
	assert.Equal(t, "a@b.com", register.Identifier(ChannelEmail))
}
