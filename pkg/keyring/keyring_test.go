package keyring

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestFileKeyringRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "keyring.json")
	fk := NewFileKeyring(path, "master")

	_, err := fk.Get("mysql", "root")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, fk.Set("mysql", "root", "s3cret"))
	got, err := fk.Get("mysql", "root")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)

	// a second keyring over the same file with a different master password cannot decrypt
	_, err = NewFileKeyring(path, "other").Get("mysql", "root")
	assert.Error(t, err)

	require.NoError(t, fk.Delete("mysql", "root"))
	require.NoError(t, fk.Delete("mysql", "root"))
	_, err = fk.Get("mysql", "root")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSystemKeyringManager(t *testing.T) {
	keyring.MockInit()

	km := NewKeyringManager(filepath.Join(t.TempDir(), "unused.json"), "master", time.Second)
	require.False(t, km.UsesFile())

	require.NoError(t, km.Set("redis", "default", "pw"))
	got, err := km.Get("redis", "default")
	require.NoError(t, err)
	assert.Equal(t, "pw", got)

	require.NoError(t, km.Delete("redis", "default"))
	_, err = km.Get("redis", "default")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, km.Delete("redis", "default"))
}

func TestLookup(t *testing.T) {
	km := NewFileKeyringManager(filepath.Join(t.TempDir(), "keyring.json"), "master")
	require.NoError(t, km.Set("redb", "mysql-password", "pw"))

	env := map[string]string{"MYSQL_HOST": "db"}
	lookup := Lookup(km, func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	})

	v, ok := lookup("keyring:redb/mysql-password")
	assert.True(t, ok)
	assert.Equal(t, "pw", v)

	v, ok = lookup("MYSQL_HOST")
	assert.True(t, ok)
	assert.Equal(t, "db", v)

	_, ok = lookup("keyring:redb/absent")
	assert.False(t, ok)

	_, ok = lookup("keyring:malformed")
	assert.False(t, ok)
}
