package rental

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tcw0/lendit-sub000/internal/models"
)

func TestResolveRole(t *testing.T) {
	r := &models.Rental{RenterID: 1, LenderID: 2}

	role, ok := ResolveRole(1, r)
	require.True(t, ok)
	require.Equal(t, RoleRenter, role)

	role, ok = ResolveRole(2, r)
	require.True(t, ok)
	require.Equal(t, RoleLender, role)

	_, ok = ResolveRole(3, r)
	require.False(t, ok)
}
