package main

import (
	"fmt"
	"os"
)

// version metadata populated via -ldflags at build time
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	if len(os.Args) < 2 {
		showHelp()
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version":
		fmt.Printf("rupaya-live %s", version)
		if commit != "" {
			fmt.Printf(" (commit %s)", commit)
		}
		if date != "" {
			fmt.Printf(" built %s", date)
		}
		fmt.Println()
		return

	case "watch":
		err = handleWatch(args)

	// Authentication commands
	case "login":
		err = handleLogin(args)
	case "logout":
		err = handleLogout(args)
	case "whoami":
		err = handleWhoami(args)

	case "help", "--help", "-h":
		showHelp()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func showHelp() {
	fmt.Printf("rupaya-live - live group activity for Rupaya\n\n")
	fmt.Printf("Usage: rupaya-live <command> [flags] [args...]\n\n")

	fmt.Printf("📡 Live events:\n")
	fmt.Printf("  watch <group_id>...           - Stream events and notifications for groups\n\n")

	fmt.Printf("🔐 Authentication:\n")
	fmt.Printf("  login --token <token>         - Store a session token for the API\n")
	fmt.Printf("  logout                        - Remove the stored token\n")
	fmt.Printf("  whoami                        - Show the stored token's user\n\n")

	fmt.Printf("Common Flags:\n")
	fmt.Printf("  --config <path>               - YAML config (default: ~/.rupaya/live.yaml)\n")
	fmt.Printf("  --api <url>                   - API base URL (default: $RUPAYA_API_URL)\n\n")

	fmt.Printf("Watch Flags:\n")
	fmt.Printf("  --token <token>               - Use this token instead of $RUPAYA_TOKEN or the stored one\n")
	fmt.Printf("  --json                        - Print every event as a JSON line\n")
	fmt.Printf("  --reconnect                   - Reopen dropped connections with backoff\n\n")

	fmt.Printf("Examples:\n")
	fmt.Printf("  rupaya-live login --token \"$TOKEN\"\n")
	fmt.Printf("  rupaya-live watch 12 31\n")
	fmt.Printf("  kill -HUP <pid>               # retry groups left without a connection\n")
}
