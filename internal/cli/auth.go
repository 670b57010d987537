package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clickclean/civic-platform/internal/authsession"
	"github.com/clickclean/civic-platform/internal/core/domain"
)

// userWait bounds how long login and signup wait for the session
// notification to resolve the new user.
const userWait = 3 * time.Second

func (a *app) loginCommand() *cobra.Command {
	var form authsession.LoginForm
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Example: `  civic login
  civic login --email asha@example.com --password s3cret!`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if form.Email == "" || form.Password == "" {
				if err := promptLogin(&form); err != nil {
					return err
				}
			}
			if err := form.Submit(ctx, authsession.FromContext(ctx)); err != nil {
				return err
			}
			u := a.awaitUser(ctx, func(u *domain.ResolvedUser) bool {
				return u != nil && strings.EqualFold(u.Email, form.Email)
			})
			if u == nil {
				a.view.line("Signed in.")
				return nil
			}
			a.view.line("Signed in as %s (%s)", displayName(u), u.Role.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password")
	return cmd
}

func (a *app) signupCommand() *cobra.Command {
	var form authsession.SignupForm
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long: `Create an account as a citizen or community reporter. Municipal and
administrator roles are granted by an administrator.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if form.Name == "" || form.Email == "" || form.Password == "" || form.ConfirmPassword == "" {
				if err := promptSignup(&form); err != nil {
					return err
				}
			}
			if err := form.Submit(ctx, authsession.FromContext(ctx)); err != nil {
				a.fieldErrors(err)
				return err
			}
			u := a.awaitUser(ctx, func(u *domain.ResolvedUser) bool {
				return u != nil && strings.EqualFold(u.Email, form.Email)
			})
			if u == nil {
				a.view.line("Account created.")
				return nil
			}
			a.view.line("Welcome, %s! You joined as %s.", displayName(u), u.Role.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "full name")
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "password, at least 6 characters")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "repeat the password")
	cmd.Flags().StringVar(&form.Role, "role", "", "citizen or reporter (default citizen)")
	return cmd
}

// fieldErrors prints one line per invalid form field.
func (a *app) fieldErrors(err error) {
	var fe *authsession.FormError
	if !errors.As(err, &fe) || len(fe.Fields) == 0 {
		return
	}
	names := make([]string, 0, len(fe.Fields))
	for name := range fe.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(a.errOut, "  %s: %s\n", name, fe.Fields[name])
	}
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			auth := authsession.FromContext(ctx)
			if !auth.IsAuthenticated() {
				a.view.line("You are not signed in.")
				return nil
			}
			if err := auth.Logout(ctx); err != nil {
				a.log.Warn().Err(err).Msg("server sign-out failed")
				a.view.note("The server could not be reached; the local session was removed.")
			}
			a.view.line("Signed out.")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	return gated(&cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.view.user(authsession.FromContext(cmd.Context()).User())
			return nil
		},
	}, domain.ActionViewProfile)
}

func (a *app) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect the session",
	}
	watch := gated(&cobra.Command{
		Use:   "watch",
		Short: "Print session changes as they happen",
		Long: `Print session changes until interrupted. Signing out on another device
ends the watch.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationWatch: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.watchSession(cmd.Context())
		},
	}, domain.ActionViewProfile)
	cmd.AddCommand(watch)
	return cmd
}

func (a *app) watchSession(ctx context.Context) error {
	events := make(chan domain.SessionEvent, 64)
	sub := a.client.Subscribe(func(ev domain.SessionEvent) {
		select {
		case events <- ev:
		default:
			a.log.Warn().Str("event", string(ev.Type)).Msg("dropping session event")
		}
	})
	defer sub.Unsubscribe()

	a.view.note("watching session changes, press Ctrl+C to stop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			a.view.line("%s  %s", time.Now().Format(time.TimeOnly), ev.Type)
			if ev.Type == domain.EventSignedOut {
				return nil
			}
		}
	}
}

// awaitUser polls the manager until match accepts its user or userWait
// passes, and returns the last user seen if it matched.
func (a *app) awaitUser(ctx context.Context, match func(*domain.ResolvedUser) bool) *domain.ResolvedUser {
	deadline := time.NewTimer(userWait)
	defer deadline.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for {
		if u := a.manager.User(); match(u) {
			return u
		}
		select {
		case <-ctx.Done():
			return nil
		case <-deadline.C:
			return nil
		case <-tick.C:
		}
	}
}
