package main

import (
	"fmt"
	"os"
	"strings"

	"postsapi/service"
)

// CliVersion is reported by the version command.
const CliVersion = "1.0.0"

// exit is a variable so tests can intercept it.
var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches os.Args to a command.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help", "-h", "--help":
		printHelp()
	case "version":
		fmt.Printf("postsapi version %s\n", CliVersion)
	case "serve", "init", "seed", "clean", "backup", "restore":
		args := append([]string{cmd}, os.Args[2:]...)
		if code := service.HandleCommand(args); code != 0 {
			exit(code)
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func printHelp() {
	helpText := `Usage: postsapi <command> [options]
Commands:
  help                           Display this help message.
  version                        Show version information.
  serve                          Run the posts API server.
  init                           Initialize a new empty badger database.
  seed [count]                   Insert fake posts and comments.
  clean                          Delete the badger database.
  backup [file]                  Back up the badger database.
  restore <file>                 Restore the badger database from a backup.
`
	fmt.Println(helpText)
}
