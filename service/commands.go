package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"postsapi/app/config"
	"postsapi/app/logger"

	"github.com/brianvoe/gofakeit/v7"
)

var osExit = os.Exit

// defaultSeedCount is how many posts `seed` creates without an argument.
const defaultSeedCount = 10

// HandleCommand runs one subcommand and returns its exit code.
func HandleCommand(args []string) int {
	if len(args) < 1 {
		printCommandHelp()
		osExit(1)
		return 1
	}

	cmd := args[0]
	if cmd == "help" {
		printCommandHelp()
		return 0
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(stdout, "Failed to load configuration: %v\n", err)
		osExit(1)
		return 1
	}

	code := 0
	switch cmd {
	case "serve":
		code = runServe(cfg)
	case "clean":
		code = clean(cfg)
	case "init":
		code = initDb(cfg)
	case "seed":
		n := defaultSeedCount
		if len(args) > 1 {
			n, err = strconv.Atoi(args[1])
			if err != nil || n < 1 {
				fmt.Fprintf(stdout, "Error: seed count must be a positive integer, got %q\n", args[1])
				osExit(1)
				return 1
			}
		}
		code = seed(cfg, n)
	case "backup":
		target := ""
		if len(args) > 1 {
			target = args[1]
		}
		code = backup(cfg, target)
	case "restore":
		if len(args) < 2 {
			fmt.Fprintln(stdout, "Error: backup file path required for restore")
			osExit(1)
			return 1
		}
		code = restore(cfg, args[1])
	default:
		fmt.Fprintf(stdout, "Unknown command: %s\n\n", cmd)
		printCommandHelp()
		osExit(1)
		return 1
	}

	if code != 0 {
		osExit(code)
	}
	return code
}

func printCommandHelp() {
	helpText := `Commands:
  serve                           Run the posts API server
  init                            Initialize a new empty database
  seed [count]                    Insert fake posts and comments (default 10)
  clean                           Delete the database
  backup [file]                   Create a backup of the database
  restore <file>                  Restore database from backup
  help                            Display this help message

Configuration is read from configs/config.yaml and POSTSAPI_* environment variables.`
	fmt.Fprintln(stdout, helpText)
}

// runServe opens the configured store and serves until SIGINT or SIGTERM.
func runServe(cfg *config.Config) int {
	l := logger.Init(os.Stderr, cfg.Log.Level)

	st, err := openStore(cfg, l)
	if err != nil {
		l.Error("Failed to open store", "driver", cfg.Storage.Driver, "err", err)
		return 1
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := RunAppServer(ctx, cfg, st, l); err != nil {
		l.Error("Server exited with error", "err", err)
		return 1
	}
	l.Info("Server exited")
	return 0
}

// clean removes the database.
func clean(cfg *config.Config) int {
	if !requireBadger(cfg, "clean") {
		return 1
	}
	dbPath := cfg.Storage.Path
	if !exists(dbPath) {
		fmt.Fprintln(stdout, "Database is already clean (does not exist)")
		return 0
	}

	if !confirm("Are you sure you want to clean the database? This cannot be undone.") {
		fmt.Fprintln(stdout, "Operation cancelled")
		return 0
	}

	if err := os.RemoveAll(dbPath); err != nil {
		fmt.Fprintf(stdout, "Failed to clean database: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "Database cleaned successfully")
	return 0
}

// initDb initializes a new empty database.
func initDb(cfg *config.Config) int {
	if !requireBadger(cfg, "init") {
		return 1
	}
	dbPath := cfg.Storage.Path
	if exists(dbPath) {
		fmt.Fprintln(stdout, "Database already exists. Use 'clean' first if you want to reinitialize.")
		return 0
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		fmt.Fprintf(stdout, "Failed to create database directory: %v\n", err)
		return 1
	}

	db, err := openBadger(cfg)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to initialize database: %v\n", err)
		return 1
	}
	defer db.Close()

	fmt.Fprintln(stdout, "Database initialized successfully")
	return 0
}

// seed fills the configured store with n fake posts.
func seed(cfg *config.Config, n int) int {
	l := logger.New(os.Stderr, cfg.Log.Level)
	st, err := openStore(cfg, l)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to open store: %v\n", err)
		return 1
	}
	defer st.Close()

	faker := gofakeit.New(uint64(time.Now().UnixNano()))
	comments, err := Seed(context.Background(), st, faker, n)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to seed database: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Seeded %d posts and %d comments\n", n, comments)
	return 0
}

// backup writes a full badger backup to target, or to a timestamped file in
// a backups directory next to the database.
func backup(cfg *config.Config, target string) int {
	if !requireBadger(cfg, "backup") {
		return 1
	}
	if !exists(cfg.Storage.Path) {
		fmt.Fprintln(stdout, "No database exists to backup")
		return 1
	}

	if target == "" {
		backupDir := filepath.Join(filepath.Dir(cfg.Storage.Path), "backups")
		target = filepath.Join(backupDir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		fmt.Fprintf(stdout, "Failed to create backup directory: %v\n", err)
		return 1
	}

	db, err := openBadger(cfg)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	f, err := os.Create(target)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to create backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if _, err := db.Backup(f, 0); err != nil {
		fmt.Fprintf(stdout, "Failed to backup database: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Database backed up successfully to %s\n", target)
	return 0
}

// restore replaces the database with the contents of a backup file.
func restore(cfg *config.Config, backupFile string) int {
	if !requireBadger(cfg, "restore") {
		return 1
	}
	fi, err := os.Stat(backupFile)
	if err != nil {
		fmt.Fprintf(stdout, "Backup file does not exist: %s\n", backupFile)
		return 1
	}
	if fi.Size() == 0 {
		fmt.Fprintf(stdout, "Backup file is empty: %s\n", backupFile)
		return 1
	}

	dbPath := cfg.Storage.Path
	if exists(dbPath) {
		if !confirm("Existing database found. Do you want to replace it?") {
			fmt.Fprintln(stdout, "Operation cancelled")
			return 1
		}
		if err := os.RemoveAll(dbPath); err != nil {
			fmt.Fprintf(stdout, "Failed to remove existing database: %v\n", err)
			return 1
		}
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		fmt.Fprintf(stdout, "Failed to create database directory: %v\n", err)
		return 1
	}

	db, err := openBadger(cfg)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to open backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	// Load panics on some malformed inputs.
	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic occurred during restore: %v", r)
			}
		}()
		return db.Load(f, 256)
	}()
	if err != nil {
		fmt.Fprintf(stdout, "Failed to restore database: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, "Database restored successfully")
	return 0
}
