// Package authcli is a terminal front end for the authentication state. It
// renders the login, signup and home screens as text driven by the state
// store's slots.
package authcli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/mmynk/authflow/internal/gateway"
	"github.com/mmynk/authflow/internal/navigation"
	"github.com/mmynk/authflow/internal/observable"
	"github.com/mmynk/authflow/internal/provider"
	"github.com/mmynk/authflow/internal/state"
)

// ErrAuthFailed is returned by login and signup when the provider rejected
// the attempt. The reason has already been shown to the user.
var ErrAuthFailed = errors.New("authentication failed")

// App wires the state store to the terminal.
type App struct {
	Provider provider.Provider
	Logger   *slog.Logger
	Out      io.Writer
}

// Command returns the root command.
func (a *App) Command() *cli.Command {
	return &cli.Command{
		Name:  "authflow",
		Usage: "sign up, log in and log out against the identity service",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "log in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, Sources: cli.EnvVars("AUTHFLOW_PASSWORD")},
				},
				Action: a.login,
			},
			{
				Name:  "signup",
				Usage: "create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, Sources: cli.EnvVars("AUTHFLOW_PASSWORD")},
				},
				Action: a.signup,
			},
			{
				Name:   "logout",
				Usage:  "sign out and forget the stored session",
				Action: a.logout,
			},
			{
				Name:   "whoami",
				Usage:  "show the signed-in user",
				Action: a.whoami,
			},
		},
	}
}

func (a *App) open() (*state.Store, *navigation.Router) {
	store := state.New(gateway.New(a.Provider, a.Logger), a.Logger)
	router := navigation.NewRouter(navigation.StartRoute(store.LoginState().Get()))
	return store, router
}

func (a *App) login(ctx context.Context, cmd *cli.Command) error {
	store, router := a.open()
	defer store.Close()

	if router.Current() == navigation.RouteHome {
		a.renderHome(store)
		return nil
	}

	job := store.Login(cmd.String("email"), cmd.String("password"))
	return a.follow(ctx, job, store.LoginState(), router.HandleLogin)
}

func (a *App) signup(ctx context.Context, cmd *cli.Command) error {
	store, router := a.open()
	defer store.Close()

	a.render(router.Navigate(navigation.RouteSignup))
	job := store.Signup(cmd.String("name"), cmd.String("email"), cmd.String("password"))
	return a.follow(ctx, job, store.SignupState(), router.HandleSignup)
}

func (a *App) logout(_ context.Context, _ *cli.Command) error {
	store, router := a.open()
	defer store.Close()

	store.Logout()
	a.render(router.Logout())
	return nil
}

func (a *App) whoami(_ context.Context, _ *cli.Command) error {
	store, router := a.open()
	defer store.Close()

	if router.Current() != navigation.RouteHome {
		fmt.Fprintln(a.Out, "Not signed in")
		return nil
	}
	a.renderHome(store)
	return nil
}

func (a *App) renderHome(store *state.Store) {
	user, _ := store.LoginState().Get().Value()
	a.render(navigation.Frame{Route: navigation.RouteHome, User: user})
}

// follow renders every change of slot until the job's result is terminal.
func (a *App) follow(ctx context.Context, job *state.Job, slot observable.Reader[state.State], handle func(state.State) navigation.Frame) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	updates := slot.Subscribe(ctx)

	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return ctx.Err()
			}
			a.render(handle(st))
			if st == nil || !st.Terminal() {
				continue
			}
			if st.Err() != nil {
				return ErrAuthFailed
			}
			return nil
		case <-ctx.Done():
			job.Cancel()
			return ctx.Err()
		}
	}
}

func (a *App) render(f navigation.Frame) {
	switch {
	case f.Loading:
		fmt.Fprintf(a.Out, "[%s] working...\n", f.Route)
	case f.Notice != "":
		fmt.Fprintf(a.Out, "[%s] %s\n", f.Route, f.Notice)
	case f.Route == navigation.RouteHome && f.User != nil:
		fmt.Fprintf(a.Out, "[%s] Welcome, %s (%s)\n", f.Route, f.User.Name(), f.User.Email)
	default:
		fmt.Fprintf(a.Out, "[%s]\n", f.Route)
	}
}
