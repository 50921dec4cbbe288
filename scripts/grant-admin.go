package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/grant-admin.go <email>\n")
		os.Exit(1)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Fprintf(os.Stderr, "Error: DATABASE_URL is not set\n")
		os.Exit(1)
	}

	email := strings.ToLower(strings.TrimSpace(os.Args[1]))

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	result, err := db.Exec(`
		UPDATE profiles SET role = 'admin'
		WHERE user_id = (SELECT id FROM users WHERE email = $1)`,
		email,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		fmt.Fprintf(os.Stderr, "No profile found for %s\n", email)
		os.Exit(1)
	}

	fmt.Printf("Granted admin to %s\n", email)
}
