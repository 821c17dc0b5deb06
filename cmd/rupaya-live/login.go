package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/rupaya/live/pkg/auth"
)

func handleLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	token := fs.String("token", "", "Session token issued by the API")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" {
		return fmt.Errorf("usage: rupaya-live login --token <token>")
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	creds, err := auth.NewCredentials(*token)
	if err != nil {
		return err
	}

	store, err := auth.LoadCredentials()
	if err != nil {
		return err
	}
	store.Set(cfg.Client.APIBaseURL, creds)
	if err := store.SaveCredentials(); err != nil {
		return err
	}

	fmt.Printf("✅ Token stored for %s\n", cfg.Client.APIBaseURL)
	if creds.UserID != "" {
		fmt.Printf("   User: %s\n", creds.UserID)
	}
	if !creds.ExpiresAt.IsZero() {
		fmt.Printf("   Expires: %s\n", creds.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

func handleLogout(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.load()
	if err != nil {
		return err
	}

	store, err := auth.LoadCredentials()
	if err != nil {
		return err
	}
	store.Remove(cfg.Client.APIBaseURL)
	if err := store.SaveCredentials(); err != nil {
		return err
	}
	fmt.Printf("✅ Logged out of %s\n", cfg.Client.APIBaseURL)
	return nil
}

func handleWhoami(args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.load()
	if err != nil {
		return err
	}

	store, err := auth.LoadCredentials()
	if err != nil {
		return err
	}
	creds, ok := store.Get(cfg.Client.APIBaseURL)
	if !ok {
		return fmt.Errorf("not logged in to %s", cfg.Client.APIBaseURL)
	}
	user := creds.UserID
	if user == "" {
		user = "(unknown user)"
	}
	fmt.Printf("🔐 %s on %s\n", user, cfg.Client.APIBaseURL)
	if !creds.ExpiresAt.IsZero() {
		fmt.Printf("   Expires: %s\n", creds.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}
