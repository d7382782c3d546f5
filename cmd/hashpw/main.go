// Command hashpw prints an argon2id hash for a password and can store it as
// a login credential.
//
// The password is read from the first line of stdin unless -password is set.
// With -database-url the credential is written for -username, owned by a new
// placeholder user.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cptk8s/registro/internal/auth"
	"github.com/cptk8s/registro/internal/model"
	"github.com/cptk8s/registro/internal/repository"
)

type output struct {
	Username     string `json:"username,omitempty"`
	UserID       int64  `json:"user_id,omitempty"`
	CredentialID int64  `json:"credential_id,omitempty"`
	PasswordHash string `json:"password_hash"`
}

func main() {
	var (
		password    = flag.String("password", "", "Password to hash (read from stdin when empty)")
		driver      = flag.String("driver", envOr("DB_DRIVER", repository.DriverSQLite), "Database driver: postgres or sqlite")
		databaseURL = flag.String("database-url", "", "Store the credential in this database")
		username    = flag.String("username", "", "Login name for the stored credential")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	// Flags are checked before anything is read or written.
	outFormat, err := parseFormat(*format)
	if err != nil {
		fail(err)
	}
	if *databaseURL != "" && *username == "" {
		fail("-username is required with -database-url")
	}

	pw := *password
	if pw == "" {
		pw, err = readPassword(os.Stdin)
		if err != nil {
			fail("read password:", err)
		}
	}

	hash, err := auth.HashPassword(pw)
	if err != nil {
		fail("hash password:", err)
	}
	out := output{PasswordHash: hash}

	if *databaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cred, err := storeCredential(ctx, *driver, *databaseURL, *username, hash)
		if err != nil {
			fail("store credential:", err)
		}
		out.Username = cred.Username
		out.UserID = cred.UserID
		out.CredentialID = cred.ID
	}

	if err := writeOutput(os.Stdout, outFormat, out); err != nil {
		fail("write output:", err)
	}
}

const (
	formatPlain = "plain"
	formatJSON  = "json"
)

func parseFormat(s string) (string, error) {
	switch f := strings.ToLower(s); f {
	case formatPlain, formatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format %q; use plain or json", s)
	}
}

func writeOutput(w io.Writer, format string, out output) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	_, err := fmt.Fprintln(w, out.PasswordHash)
	return err
}

func storeCredential(ctx context.Context, driver, databaseURL, username, hash string) (*model.Credential, error) {
	repo, err := repository.New(ctx, repository.Options{
		Driver:    driver,
		URL:       databaseURL,
		Returning: true,
	})
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	user, err := repo.CreateUser(ctx, model.NewUser{Name: username})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	cred, err := repo.CreateCredential(ctx, &model.Credential{
		UserID:       user.ID,
		Username:     username,
		PasswordHash: hash,
	})
	if err != nil {
		_ = repo.DeleteUser(ctx, user.ID)
		if errors.Is(err, repository.ErrCredentialExists) {
			return nil, fmt.Errorf("username %q already has a credential", username)
		}
		return nil, err
	}
	return cred, nil
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fail(args ...any) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}
