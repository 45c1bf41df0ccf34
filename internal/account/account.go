// Package account handles account creation and login from the login page.
package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/star/satrack/internal/page"
	"github.com/star/satrack/internal/trackerapi"
)

const (
	CreateUsernameID = "create-username"
	LoginUsernameID  = "login-username"
)

// Authenticator creates accounts and logs users in.
type Authenticator interface {
	CreateAccount(ctx context.Context, username string) error
	Login(ctx context.Context, username string) error
}

// Access submits a username and redirects to the account page on success.
// The username is not validated here; the server decides.
type Access struct {
	page   *page.Page
	auth   Authenticator
	host   page.Host
	logger *slog.Logger
}

func New(p *page.Page, auth Authenticator, host page.Host, logger *slog.Logger) *Access {
	return &Access{
		page:   p,
		auth:   auth,
		host:   host,
		logger: logger.With("component", "account"),
	}
}

// CreateAccount registers the username typed into the create field.
func (a *Access) CreateAccount(ctx context.Context) {
	username := a.page.Value(CreateUsernameID)
	a.page.Go(func() {
		a.finish(username, a.auth.CreateAccount(ctx, username), "Error creating account")
	})
}

// Login authenticates the username typed into the login field.
func (a *Access) Login(ctx context.Context) {
	username := a.page.Value(LoginUsernameID)
	a.page.Go(func() {
		a.finish(username, a.auth.Login(ctx, username), "Invalid username")
	})
}

func (a *Access) finish(username string, err error, rejected string) {
	var se *trackerapi.StatusError
	switch {
	case err == nil:
		a.host.Navigate(trackerapi.AccountPath(username))
	case errors.As(err, &se):
		a.logger.Info("account request rejected", "username", username, "status", se.Code)
		a.host.Alert(rejected)
	default:
		a.logger.Error("account request failed", "username", username, "error", err)
	}
}
