package models

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var identifierPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return identifierPattern.MatchString(fl.Field().String())
	})
	// empty is allowed and means "use the default panel URL"
	v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		raw := fl.Field().String()
		if raw == "" {
			return true
		}
		u, err := url.Parse(raw)
		return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	})
	// a minute of slack for clock skew between reporters and the dashboard
	v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return !ok || !t.After(time.Now().Add(time.Minute))
	})
	return v
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "gte":
		return "must not be negative"
	case "notblank":
		return "must not be blank"
	case "identifier":
		return "only lowercase letters, numbers, and hyphens are allowed"
	case "httpurl":
		return "please enter a valid URL"
	case "email":
		return "please enter a valid email address"
	case "oneof":
		return fmt.Sprintf("unknown value %q, want one of: %s", fe.Value(), fe.Param())
	case "notfuture":
		return "must not be in the future"
	}
	return "is invalid (" + fe.Tag() + ")"
}

// toValidationError reports the first failed rule as a *ValidationError.
func toValidationError(err error, field string) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}
	fe := errs[0]
	if field == "" {
		field = fe.Field()
	}
	return &ValidationError{Field: field, Message: fieldMessage(fe)}
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return toValidationError(err, "")
	}
	return nil
}

// ValidateIdentifier checks a server identifier: lowercase letters, digits and hyphens, at least 3 long.
func ValidateIdentifier(identifier string) error {
	if err := validate.Var(identifier, "min=3,identifier"); err != nil {
		return toValidationError(err, "identifier")
	}
	return nil
}

// RegisterRequest carries local account credentials.
type RegisterRequest struct {
	Username string `json:"username" validate:"min=3"`
	Password string `json:"password" validate:"min=6"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func (r RegisterRequest) Validate() error {
	return validateStruct(r)
}

// CreateServerRequest is the body of a create-server call.
type CreateServerRequest struct {
	Name       string `json:"name" validate:"notblank,min=3"`
	Identifier string `json:"identifier" validate:"min=3,identifier"`
	Address    string `json:"address" validate:"notblank,min=3"`
	MaxPlayers int    `json:"maxPlayers" validate:"gte=0"`
	Memory     string `json:"memory"`
}

func (r CreateServerRequest) Validate() error {
	return validateStruct(r)
}

// NewServer builds the record for a freshly created server. Status and player
// count are not taken from the request: new servers always start offline and empty.
func (r CreateServerRequest) NewServer() *Server {
	memory := r.Memory
	if memory == "" {
		memory = "1.0 GB"
	}
	return &Server{
		Name:       strings.TrimSpace(r.Name),
		Identifier: r.Identifier,
		Address:    strings.TrimSpace(r.Address),
		Status:     StatusOffline,
		Players:    0,
		MaxPlayers: r.MaxPlayers,
		Memory:     memory,
		Uptime:     "0d 0h 0m",
	}
}

func (p SettingsPatch) Validate() error {
	return validateStruct(p)
}

func (p ServerPatch) Validate() error {
	return validateStruct(p)
}
