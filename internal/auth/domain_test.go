package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilUserIsAnonymousPrincipal(t *testing.T) {
	var u *User

	assert.NotPanics(t, func() {
		assert.Equal(t, int64(0), u.GetID())
		assert.False(t, u.IsSuperUser())
		assert.False(t, u.IsStaff())
	})
}

func TestPrincipalFromBareContext(t *testing.T) {
	u := PrincipalFromContext(context.Background())

	// absent principal must behave like an anonymous one, not crash the
	// authorization path it gets boxed into
	assert.NotPanics(t, func() {
		assert.False(t, u.IsSuperUser())
		assert.False(t, u.IsStaff())
	})
}
