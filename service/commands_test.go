package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"postsapi/app/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestConfig points commands at a badger database in a temp dir and
// captures their output.
func setupTestConfig(t *testing.T) (*config.Config, *bytes.Buffer) {
	tmpDir := t.TempDir()
	cfg := &config.Config{
		Server:  config.ServerConfig{Port: 8080},
		Storage: config.StorageConfig{Driver: config.DriverBadger, Path: filepath.Join(tmpDir, "test.db")},
		Log:     config.LogConfig{Level: "error"},
	}

	oldLoad, oldStdout, oldStdin, oldExit := loadConfig, stdout, stdin, osExit
	t.Cleanup(func() {
		loadConfig, stdout, stdin, osExit = oldLoad, oldStdout, oldStdin, oldExit
	})

	var out bytes.Buffer
	stdout = &out
	stdin = strings.NewReader("")
	loadConfig = func() (*config.Config, error) { return cfg, nil }
	osExit = func(int) {}
	return cfg, &out
}

func mockStdin(input string) {
	stdin = strings.NewReader(input)
}

func TestHandleCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedOutput string
		expectedExit   int
	}{
		{
			name:           "no arguments",
			args:           []string{},
			expectedOutput: "Commands:",
			expectedExit:   1,
		},
		{
			name:           "help command",
			args:           []string{"help"},
			expectedOutput: "seed [count]",
			expectedExit:   0,
		},
		{
			name:           "unknown command",
			args:           []string{"unknown"},
			expectedOutput: "Unknown command: unknown",
			expectedExit:   1,
		},
		{
			name:           "restore without file",
			args:           []string{"restore"},
			expectedOutput: "Error: backup file path required for restore",
			expectedExit:   1,
		},
		{
			name:           "seed with bad count",
			args:           []string{"seed", "lots"},
			expectedOutput: "seed count must be a positive integer",
			expectedExit:   1,
		},
		{
			name:           "init",
			args:           []string{"init"},
			expectedOutput: "Database initialized successfully",
			expectedExit:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out := setupTestConfig(t)
			exitCode := -1
			osExit = func(code int) { exitCode = code }

			code := HandleCommand(tt.args)

			assert.Contains(t, out.String(), tt.expectedOutput)
			assert.Equal(t, tt.expectedExit, code)
			if tt.expectedExit > 0 {
				assert.Equal(t, tt.expectedExit, exitCode)
			} else {
				assert.Equal(t, -1, exitCode)
			}
		})
	}
}

func TestHandleCommandConfigError(t *testing.T) {
	_, out := setupTestConfig(t)
	loadConfig = func() (*config.Config, error) { return nil, errors.New("bad yaml") }

	assert.Equal(t, 1, HandleCommand([]string{"serve"}))
	assert.Contains(t, out.String(), "Failed to load configuration: bad yaml")
}

func TestInitDb(t *testing.T) {
	cfg, out := setupTestConfig(t)

	t.Run("initialize new database", func(t *testing.T) {
		assert.Equal(t, 0, initDb(cfg))
		assert.Contains(t, out.String(), "Database initialized successfully")
		assert.DirExists(t, cfg.Storage.Path)
	})

	t.Run("initialize existing database", func(t *testing.T) {
		out.Reset()
		assert.Equal(t, 0, initDb(cfg))
		assert.Contains(t, out.String(), "Database already exists")
	})
}

func TestClean(t *testing.T) {
	cfg, out := setupTestConfig(t)

	t.Run("clean non-existent database", func(t *testing.T) {
		clean(cfg)
		assert.Contains(t, out.String(), "Database is already clean")
	})

	t.Run("clean existing database - cancelled", func(t *testing.T) {
		require.Equal(t, 0, initDb(cfg))
		out.Reset()
		mockStdin("n\n")

		clean(cfg)

		assert.Contains(t, out.String(), "Operation cancelled")
		assert.DirExists(t, cfg.Storage.Path)
	})

	t.Run("clean existing database - confirmed", func(t *testing.T) {
		out.Reset()
		mockStdin("y\n")

		assert.Equal(t, 0, clean(cfg))

		assert.Contains(t, out.String(), "Database cleaned successfully")
		assert.NoDirExists(t, cfg.Storage.Path)
	})
}

func TestBadgerOnlyCommands(t *testing.T) {
	cfg, out := setupTestConfig(t)
	cfg.Storage.Driver = config.DriverPostgres

	for _, run := range []func() int{
		func() int { return clean(cfg) },
		func() int { return initDb(cfg) },
		func() int { return backup(cfg, "") },
		func() int { return restore(cfg, "backup.db") },
	} {
		out.Reset()
		assert.Equal(t, 1, run())
		assert.Contains(t, out.String(), "only available for the badger driver")
	}
}

func TestBackupAndRestore(t *testing.T) {
	cfg, out := setupTestConfig(t)
	backupFile := filepath.Join(t.TempDir(), "backup.db")

	t.Run("backup non-existent database", func(t *testing.T) {
		assert.Equal(t, 1, backup(cfg, backupFile))
		assert.Contains(t, out.String(), "No database exists to backup")
	})

	t.Run("restore non-existent backup", func(t *testing.T) {
		out.Reset()
		assert.Equal(t, 1, restore(cfg, "nonexistent.db"))
		assert.Contains(t, out.String(), "Backup file does not exist")
	})

	t.Run("backup seeded database", func(t *testing.T) {
		out.Reset()
		require.Equal(t, 0, seed(cfg, 3))
		assert.Contains(t, out.String(), "Seeded 3 posts")

		out.Reset()
		assert.Equal(t, 0, backup(cfg, backupFile))
		assert.Contains(t, out.String(), "Database backed up successfully")
		assert.FileExists(t, backupFile)
	})

	t.Run("restore with existing database - cancelled", func(t *testing.T) {
		out.Reset()
		mockStdin("n\n")

		assert.Equal(t, 1, restore(cfg, backupFile))
		assert.Contains(t, out.String(), "Operation cancelled")
	})

	t.Run("restore over existing database - confirmed", func(t *testing.T) {
		out.Reset()
		mockStdin("y\n")

		assert.Equal(t, 0, restore(cfg, backupFile))
		assert.Contains(t, out.String(), "Database restored successfully")

		st, err := openStore(cfg, nil)
		require.NoError(t, err)
		defer st.Close()
		posts, err := st.Find(context.Background())
		require.NoError(t, err)
		assert.Len(t, posts, 3)
	})

	t.Run("restore empty file", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "empty.db")
		require.NoError(t, os.WriteFile(empty, nil, 0644))
		out.Reset()

		assert.Equal(t, 1, restore(cfg, empty))
		assert.Contains(t, out.String(), "Backup file is empty")
	})
}
