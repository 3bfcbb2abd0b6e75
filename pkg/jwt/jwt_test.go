package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adrianfdez469/cuadrecaja-sub000/pkg/jwt"
)

func TestGenerateParse(t *testing.T) {
	tok, err := jwt.Generate("s3cret", "u-1", "b-1", jwt.RoleManager, "cuadrecaja", 5)
	require.NoError(t, err)

	claims, err := jwt.Parse("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "b-1", claims.BusinessID)
	assert.Equal(t, jwt.RoleManager, claims.Role)
	assert.Equal(t, "cuadrecaja", claims.Issuer)

	_, err = jwt.Parse("otro", tok)
	assert.Error(t, err)
}

func TestParse_Rechazos(t *testing.T) {
	expired, err := jwt.Generate("s", "u-1", "b-1", jwt.RoleAdmin, "x", -1)
	require.NoError(t, err)
	_, err = jwt.Parse("s", expired)
	assert.Error(t, err)

	noBusiness, err := jwt.Generate("s", "u-1", "", jwt.RoleAdmin, "x", 5)
	require.NoError(t, err)
	_, err = jwt.Parse("s", noBusiness)
	assert.Error(t, err)

	_, err = jwt.Generate("", "u", "b", "r", "x", 5)
	assert.Error(t, err)
}
