package service

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"postsapi/app/config"
	"postsapi/app/logger"
	"postsapi/app/repositories"

	"github.com/dgraph-io/badger/v4"
)

// Process streams, swapped out in tests.
var (
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
)

// loadConfig is a variable to allow testing with different settings.
var loadConfig = func() (*config.Config, error) {
	return config.Load()
}

// store is a PostStore that owns a connection.
type store interface {
	repositories.PostStore
	io.Closer
}

// openStore opens the store selected by cfg.Storage.Driver.
func openStore(cfg *config.Config, l *slog.Logger) (store, error) {
	switch cfg.Storage.Driver {
	case config.DriverBadger:
		db, err := openBadger(cfg)
		if err != nil {
			return nil, err
		}
		return repositories.NewBadgerStore(db), nil
	case config.DriverPostgres, config.DriverMySQL:
		sqlStore, err := repositories.OpenSQL(cfg.Storage.Driver, cfg.Storage.DSN, logger.NewGormLogger(l))
		if err != nil {
			return nil, err
		}
		return sqlStore, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// requireBadger reports whether cmd can run against the configured driver.
func requireBadger(cfg *config.Config, cmd string) bool {
	if cfg.Storage.Driver == config.DriverBadger {
		return true
	}
	fmt.Fprintf(stdout, "The %s command is only available for the badger driver (configured: %s)\n", cmd, cfg.Storage.Driver)
	return false
}

// confirm asks a yes/no question and defaults to no.
func confirm(question string) bool {
	fmt.Fprintf(stdout, "%s [y/N] ", question)
	line, _ := bufio.NewReader(stdin).ReadString('\n')
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func openBadger(cfg *config.Config) (*badger.DB, error) {
	return repositories.OpenBadger(repositories.BadgerOptions{
		Path:                 cfg.Storage.Path,
		EncryptionPassphrase: cfg.Storage.EncryptionPassphrase,
	})
}
