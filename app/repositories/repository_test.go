package repositories

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"postsapi/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	a, err := deriveKey("secret")
	require.NoError(t, err)
	b, err := deriveKey("secret")
	require.NoError(t, err)
	c, err := deriveKey("other")
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestOpenBadgerEncrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badger")
	ctx := context.Background()

	db, err := OpenBadger(BadgerOptions{Path: path, EncryptionPassphrase: "correct horse"})
	require.NoError(t, err)
	store := NewBadgerStore(db)
	id, err := store.Insert(ctx, models.PostInput{Title: "Secret", Contents: "Stuff"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	t.Run("same passphrase", func(t *testing.T) {
		db, err := OpenBadger(BadgerOptions{Path: path, EncryptionPassphrase: "correct horse"})
		require.NoError(t, err)
		store := NewBadgerStore(db)
		defer store.Close()

		post, err := store.FindByID(ctx, fmt.Sprint(id))
		require.NoError(t, err)
		assert.Equal(t, id, post.ID)
		assert.Equal(t, "Secret", post.Title)
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		_, err := OpenBadger(BadgerOptions{Path: path, EncryptionPassphrase: "battery staple"})
		assert.Error(t, err)
	})
}
