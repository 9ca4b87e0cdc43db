// One-off: go run scripts/genhash.go <username> [password]
// Prints an INSERT that seeds a user, for either store driver.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: genhash <username> [password]")
		os.Exit(2)
	}
	username := os.Args[1]
	password := "admin123"
	if len(os.Args) > 2 {
		password = os.Args[2]
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// created_at uses the fixed-width layout the sqlite store reads back.
	createdAt := time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
	fmt.Printf("INSERT INTO users (id, username, password_hash, created_at) VALUES ('%s', '%s', '%s', '%s');\n",
		uuid.NewString(), strings.ReplaceAll(username, "'", "''"), h, createdAt)
}
