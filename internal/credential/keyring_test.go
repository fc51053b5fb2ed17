package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useArrayKeyring(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	prev := Opener
	Opener = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { Opener = prev })
}

func TestSetGetDelete(t *testing.T) {
	useArrayKeyring(t)

	require.NoError(t, Set(DatabasePasswordKey, "s3cret"))
	got, err := Get(DatabasePasswordKey)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	require.NoError(t, Delete(DatabasePasswordKey))
	_, err = Get(DatabasePasswordKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDatabasePassword(t *testing.T) {
	useArrayKeyring(t)

	pw, err := DatabasePassword()
	require.NoError(t, err)
	assert.Empty(t, pw)

	require.NoError(t, Set(DatabasePasswordKey, "from-ring"))
	pw, err = DatabasePassword()
	require.NoError(t, err)
	assert.Equal(t, "from-ring", pw)

	t.Setenv(PasswordEnv, "from-env")
	pw, err = DatabasePassword()
	require.NoError(t, err)
	assert.Equal(t, "from-env", pw)
}
