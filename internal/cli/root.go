// Package cli implements the civic command-line shell.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clickclean/civic-platform/internal/authsession"
	"github.com/clickclean/civic-platform/internal/core/domain"
	"github.com/clickclean/civic-platform/internal/pkg/config"
	"github.com/clickclean/civic-platform/internal/sessionstore"
	"github.com/clickclean/civic-platform/pkg/logger"
)

// ErrLoginRedirect is returned when a command needs a signed-in user and
// there is none. The login hint has already been printed.
var ErrLoginRedirect = errors.New("login required")

const (
	annotationAction = "action"
	annotationWatch  = "watch"
)

type app struct {
	out    io.Writer
	errOut io.Writer
	policy domain.AccessPolicy
	view   *view
	log    zerolog.Logger

	client  *sessionstore.Client
	manager *authsession.Manager
}

// Execute runs the civic shell with args and returns the command's error.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	a := &app{
		out:    out,
		errOut: errOut,
		policy: domain.DefaultPolicy,
		view:   newView(out),
		log:    zerolog.Nop(),
	}
	defer a.close()

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "civic",
		Short: "Click Clean civic platform client",
		Long: `civic reports and tracks civic issues, follows training modules and
redeems community rewards on the Click Clean platform.

Sign in with "civic login"; the session is kept between runs.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.preRun,
	}

	root.AddCommand(
		a.loginCommand(),
		a.signupCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.sessionCommand(),
		a.dashboardCommand(),
		a.departmentsCommand(),
		a.issuesCommand(),
		a.trainingCommand(),
		a.leaderboardCommand(),
		a.rewardsCommand(),
		a.cartCommand(),
	)
	return root
}

// preRun connects to the session store, waits for the initial session and
// applies the command's access rule.
func (a *app) preRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadClient(ctx)
	if err != nil {
		return err
	}
	// One logger per invocation, bound to this run's error writer.
	a.log = logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  true,
		Output:  a.errOut,
		Service: "civic",
	})

	file := cfg.SessionFile
	if file == "" {
		file = defaultSessionFile()
	}
	a.client = sessionstore.New(sessionstore.Options{
		BaseURL:     cfg.APIURL,
		SessionFile: file,
		Timeout:     cfg.Timeout,
		WatchEvents: cmd.Annotations[annotationWatch] == "true",
		Logger:      a.log.With().Str("component", "sessionstore").Logger(),
	})
	a.manager = authsession.New(a.client, a.log.With().Str("component", "auth").Logger())
	a.manager.Start(ctx)

	select {
	case <-a.manager.Ready():
	case <-a.manager.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	ctx = authsession.NewContext(ctx, a.manager)
	cmd.SetContext(ctx)

	action := cmd.Annotations[annotationAction]
	if action == "" {
		return nil
	}
	switch err := authsession.Gate(ctx, a.policy, domain.Action(action)); {
	case errors.Is(err, domain.ErrLoginRequired):
		fmt.Fprintln(a.errOut, "please log in (civic login)")
		return ErrLoginRedirect
	case errors.Is(err, domain.ErrForbidden):
		return fmt.Errorf("%s is not available to your role: %w", cmd.CommandPath(), err)
	default:
		return err
	}
}

func (a *app) close() {
	if a.manager != nil {
		a.manager.Close()
		<-a.manager.Done()
	}
	if a.client != nil {
		a.client.Close()
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "civic", "session.json")
}

func gated(cmd *cobra.Command, action domain.Action) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationAction] = string(action)
	return cmd
}
