// Package cli implements cbtadmin, the operator tool for provisioning administrators.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/spec-kit/cbt-dashboard/internal/domain"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2

	// PasswordEnv supplies the new admin's password for non-interactive runs.
	PasswordEnv = "CBTADMIN_PASSWORD"
)

const usage = `usage:
  cbtadmin promote <email>
  cbtadmin demote <email>
  cbtadmin create <email> <name>

create reads the password from $CBTADMIN_PASSWORD or prompts without echo.
`

// AdminService is the role management the commands drive.
type AdminService interface {
	Promote(ctx context.Context, email string) (*domain.User, error)
	Demote(ctx context.Context, email string) (*domain.User, error)
	CreateAdmin(ctx context.Context, email, name, password string) (*domain.User, error)
}

// PasswordFunc obtains the password for a new account.
type PasswordFunc func() (string, error)

// Deps are the collaborators a run needs.
type Deps struct {
	Admin    AdminService
	Password PasswordFunc
}

// readPassword is swapped out in tests so they never touch the terminal.
var readPassword = term.ReadPassword

// PromptPassword reads the password from PasswordEnv, falling back to an echo-free terminal prompt on w.
func PromptPassword(w io.Writer) PasswordFunc {
	return func() (string, error) {
		if pw := os.Getenv(PasswordEnv); pw != "" {
			return pw, nil
		}
		if _, err := fmt.Fprint(w, "Password: "); err != nil {
			return "", err
		}
		pw, err := readPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}
}

// Preflight checks the argument shape before any collaborator is built.
// done reports that the run is over and code is the exit status.
func Preflight(args []string, stdout, stderr io.Writer) (code int, done bool) {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return ExitUsage, true
	}
	switch cmd, rest := args[0], args[1:]; cmd {
	case "promote", "demote":
		if len(rest) != 1 {
			fmt.Fprint(stderr, usage)
			return ExitUsage, true
		}
	case "create":
		if len(rest) < 2 {
			fmt.Fprint(stderr, usage)
			return ExitUsage, true
		}
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return ExitOK, true
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return ExitUsage, true
	}
	return ExitOK, false
}

// Run executes one command and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer, deps Deps) int {
	if code, done := Preflight(args, stdout, stderr); done {
		return code
	}

	cmd, rest := args[0], args[1:]
	if cmd == "create" {
		email, name := rest[0], strings.Join(rest[1:], " ")
		password, err := deps.Password()
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return ExitError
		}
		user, err := deps.Admin.CreateAdmin(ctx, email, name, password)
		if err != nil {
			return fail(stderr, email, err)
		}
		fmt.Fprintf(stdout, "created %s %s (%s)\n", user.Role, user.Email, user.ID)
		return ExitOK
	}

	change := deps.Admin.Promote
	if cmd == "demote" {
		change = deps.Admin.Demote
	}
	user, err := change(ctx, rest[0])
	if err != nil {
		return fail(stderr, rest[0], err)
	}
	fmt.Fprintf(stdout, "%s is now %s\n", user.Email, user.Role)
	return ExitOK
}

func fail(stderr io.Writer, email string, err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		fmt.Fprintf(stderr, "error: no account with email %s\n", email)
	case errors.Is(err, domain.ErrEmailTaken):
		fmt.Fprintf(stderr, "error: %s is already registered\n", email)
	case errors.As(err, &verr):
		fmt.Fprintf(stderr, "error: invalid %s: %s\n", verr.Field, verr.Reason)
	default:
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return ExitError
}
