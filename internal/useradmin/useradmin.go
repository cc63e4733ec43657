// Package useradmin implements the interactive account bootstrap used by
// cmd/useradmin, typically to create the first admin directly in the database.
package useradmin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/rbac"
	"golang.org/x/term"
)

// ErrPasswordMismatch is returned when the confirmation differs.
var ErrPasswordMismatch = errors.New("passwords do not match")

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, username, password, role, pictureRef string) (*models.User, error)
}

// GetSimpleText prints a prompt to w and reads one trimmed line from reader.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword reads a password from the terminal without echo.
func GetPassword(prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// CreateUser prompts for username, role and password (entered twice) and
// registers the account. An empty role means admin.
func CreateUser(ctx context.Context, reg Registrar, reader *bufio.Reader, w io.Writer) (*models.User, error) {
	username, err := GetSimpleText(reader, "Enter user name", w)
	if err != nil {
		return nil, err
	}

	role, err := GetSimpleText(reader, fmt.Sprintf("Enter role (%s|%s) [%s]", rbac.RoleAdmin, rbac.RoleUser, rbac.RoleAdmin), w)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if role == "" {
		role = rbac.RoleAdmin
	}

	password, err := GetPassword("Enter password", w)
	if err != nil {
		return nil, err
	}
	confirm, err := GetPassword("Repeat password", w)
	if err != nil {
		return nil, err
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}

	user, err := reg.Register(ctx, username, password, role, "")
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(w, "Created %s %q with id %s\n", user.Role, user.UserName, user.ID)
	return user, nil
}
