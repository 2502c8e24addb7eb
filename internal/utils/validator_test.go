package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("user@safetrade.app"))
	assert.True(t, IsValidEmail("first.last+tag@example.co"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("missing@tld"))
	assert.False(t, IsValidEmail(""))
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("longenough"))
	assert.False(t, IsValidPassword("short"))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole("admin"))
	assert.True(t, IsValidRole("moderator"))
	assert.True(t, IsValidRole("client"))
	assert.False(t, IsValidRole("superuser"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "old couch", SanitizeString("  old couch \n"))
}
