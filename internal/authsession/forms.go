package authsession

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/clickclean/civic-platform/internal/core/domain"
)

// InvalidCredentialsMessage is shown for every failed login, whatever the
// cause, so the form never reveals which accounts exist.
const InvalidCredentialsMessage = "Invalid email or password"

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// FormError reports why a form was not submitted. Fields holds one message
// per invalid field; Message is set for failures that are not tied to a
// field.
type FormError struct {
	Fields  map[string]string
	Message string
	err     error
}

func (e *FormError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

func (e *FormError) Unwrap() error { return e.err }

// SignupForm holds the fields of the signup dialog.
type SignupForm struct {
	Name            string `form:"name"             validate:"required"`
	Email           string `form:"email"            validate:"required,email"`
	Password        string `form:"password"         validate:"min=6"`
	ConfirmPassword string `form:"confirm_password" validate:"eqfield=Password"`
	Role            string `form:"role"             validate:"omitempty,oneof=citizen reporter"`
}

// Validate checks every field independently and reports all failures.
func (f *SignupForm) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	return validateForm(f, signupMessage)
}

// Submit validates the form and, only if it is valid, signs up through auth.
// An empty role signs up as a citizen.
func (f *SignupForm) Submit(ctx context.Context, auth Auth) error {
	if err := f.Validate(); err != nil {
		return err
	}
	role := domain.RoleCitizen
	if f.Role != "" {
		role = domain.Role(f.Role)
	}
	if err := auth.Signup(ctx, f.Email, f.Password, f.Name, role); err != nil {
		msg := "Could not create the account, please try again"
		if errors.Is(err, domain.ErrUserExists) {
			msg = "An account with this email already exists"
		}
		return &FormError{Message: msg, err: err}
	}
	return nil
}

func signupMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "name":
		return "name is required"
	case "email":
		if fe.Tag() == "required" {
			return "email is required"
		}
		return "email must be a valid address"
	case "password":
		return "password must be at least 6 characters"
	case "confirm_password":
		return "passwords do not match"
	case "role":
		return "role must be citizen or reporter"
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// LoginForm holds the fields of the login dialog.
type LoginForm struct {
	Email    string `form:"email"    validate:"required"`
	Password string `form:"password" validate:"required"`
}

func (f *LoginForm) Validate() error {
	f.Email = strings.TrimSpace(f.Email)
	return validateForm(f, func(fe validator.FieldError) string {
		return fe.Field() + " is required"
	})
}

// Submit validates the form and signs in through auth. Any sign-in failure
// is reported with InvalidCredentialsMessage.
func (f *LoginForm) Submit(ctx context.Context, auth Auth) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if err := auth.Login(ctx, f.Email, f.Password); err != nil {
		return &FormError{Message: InvalidCredentialsMessage, err: domain.ErrInvalidCredentials}
	}
	return nil
}

func validateForm(form any, message func(validator.FieldError) string) error {
	err := formValidator.Struct(form)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return &FormError{Message: err.Error(), err: domain.ErrInvalidInput}
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = message(fe)
	}
	return &FormError{Fields: fields, err: domain.ErrInvalidInput}
}
