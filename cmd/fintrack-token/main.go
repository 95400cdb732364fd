// Command fintrack-token issues a bearer token for local development
// against the API, signed with JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cli"
)

func main() {
	owner := flag.String("owner", "", "owner id to put in the token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cli.LoadEnvFile()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "set JWT_SECRET")
		os.Exit(1)
	}
	if *owner == "" {
		fmt.Fprintln(os.Stderr, "-owner is required")
		os.Exit(2)
	}

	token, err := auth.NewVerifier(secret).Issue(*owner, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
