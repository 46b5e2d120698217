package repositories

import (
	"crypto/sha256"
	"errors"
	"io"

	"github.com/dgraph-io/badger/v4"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrNotFound = errors.New("record not found")
)

// encryptionSalt is fixed so the same passphrase always opens the same database.
const encryptionSalt = "postsapi/badger/v1"

// BadgerOptions configures the on-disk store.
type BadgerOptions struct {
	Path string
	// InMemory ignores Path and keeps everything in RAM.
	InMemory bool
	// EncryptionPassphrase enables encryption at rest when set.
	EncryptionPassphrase string
}

// OpenBadger opens (or creates) the Badger database described by opts.
func OpenBadger(opts BadgerOptions) (*badger.DB, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts = bopts.
		WithLogger(nil).
		WithNumVersionsToKeep(1)

	if opts.EncryptionPassphrase != "" {
		key, err := deriveKey(opts.EncryptionPassphrase)
		if err != nil {
			return nil, err
		}
		// Badger requires a block/index cache when encryption is on.
		bopts = bopts.
			WithEncryptionKey(key).
			WithIndexCacheSize(64 << 20)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "opening badger")
	}
	return db, nil
}

// deriveKey stretches a passphrase into a 32-byte AES-256 key.
func deriveKey(passphrase string) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(passphrase), []byte(encryptionSalt), []byte("encryption-key"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, pkgerrors.Wrap(err, "deriving encryption key")
	}
	return key, nil
}
