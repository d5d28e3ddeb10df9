// Package cli is the interactive session agent: a small REPL that logs in
// through the gateway and keeps the session's access token renewed in the
// background.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/authbridge/internal/agent/client"
	"github.com/dmitrijs2005/authbridge/internal/agent/config"
	"github.com/dmitrijs2005/authbridge/internal/agent/renewer"
	"github.com/dmitrijs2005/authbridge/internal/common"
)

type App struct {
	config  *config.Config
	client  *client.Client
	renewer *renewer.Renewer
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	apiClient, err := client.NewClient(c.GatewayBaseURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	app := &App{
		config: c,
		client: apiClient,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	app.renewer = renewer.New(apiClient, c.RenewalInterval, c.FailureThreshold, func() {
		fmt.Fprintln(app.out, "Session ended, please log in again")
	})

	return app, nil
}

func (a *App) isLoggedIn() bool {
	return a.client.Session().Active()
}

// showLogin renders the prompt segment with the current identity.
func (a *App) showLogin() string {
	u := a.client.Session().User()
	if u == nil {
		return "(not logged in)"
	}
	return u.Email
}

func (a *App) Login(ctx context.Context) error {

	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}

	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			fmt.Fprintln(a.out, "Invalid email or password")
		case errors.Is(err, common.ErrTooManyRequests):
			fmt.Fprintln(a.out, "Too many attempts, try again later")
		default:
			fmt.Fprintln(a.out, "Gateway unavailable, try again later")
		}
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", user.Email)
	a.renewer.Start(ctx)
	return nil
}

// Status asks the gateway whether the session is still good.
func (a *App) Status(ctx context.Context) error {

	valid, err := a.client.CheckSession(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Gateway unavailable")
		return err
	}

	if !valid {
		fmt.Fprintln(a.out, "No active session")
		return nil
	}

	fmt.Fprintf(a.out, "Session active for %s (renewer: %s)\n", a.showLogin(), a.renewer.State())
	return nil
}

// Renew forces one renewal outside the background cadence.
func (a *App) Renew(ctx context.Context) error {

	if err := a.client.RenewToken(ctx); err != nil {
		switch {
		case errors.Is(err, common.ErrNoActiveSession):
			fmt.Fprintln(a.out, "No active session, please log in")
			a.renewer.Stop()
		default:
			fmt.Fprintln(a.out, "Gateway unavailable, token not renewed")
		}
		return err
	}

	fmt.Fprintln(a.out, "Access token renewed")
	return nil
}

func (a *App) Logout(ctx context.Context) error {

	a.renewer.Stop()

	if err := a.client.Logout(ctx); err != nil {
		fmt.Fprintln(a.out, "Logged out locally; gateway unreachable")
		return err
	}

	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Main runs the REPL until EOF or an exit command.
func (a *App) Main(ctx context.Context) {
	fmt.Fprintln(a.out, "authbridge agent (type 'help' for commands)")
	runREPL(ctx, a, a.showLogin, bufio.NewScanner(os.Stdin))
	a.renewer.Stop()
}
