package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/clickclean/civic-platform/internal/authsession"
)

var errAborted = errors.New("cancelled")

// promptLogin and promptSignup fill the missing fields of a form
// interactively. Tests replace them.
var (
	promptLogin  = runLoginForm
	promptSignup = runSignupForm
)

func runLoginForm(f *authsession.LoginForm) error {
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Value(&f.Email),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&f.Password),
	))
	return runForm(form)
}

func runSignupForm(f *authsession.SignupForm) error {
	if f.Role == "" {
		f.Role = "citizen"
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Full name").
			Value(&f.Name),
		huh.NewInput().
			Title("Email").
			Value(&f.Email),
		huh.NewInput().
			Title("Password").
			Description("At least 6 characters").
			EchoMode(huh.EchoModePassword).
			Value(&f.Password),
		huh.NewInput().
			Title("Confirm password").
			EchoMode(huh.EchoModePassword).
			Value(&f.ConfirmPassword),
		huh.NewSelect[string]().
			Title("I am joining as").
			Options(
				huh.NewOption("Citizen", "citizen"),
				huh.NewOption("Community Reporter", "reporter"),
			).
			Value(&f.Role),
	))
	return runForm(form)
}

func runForm(form *huh.Form) error {
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errAborted
		}
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}
