package store

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/shared"
	"github.com/go-playground/validator/v10"
)

const (
	minUsernameLength = 6
	minPasswordLength = 6
	// bcrypt rejects passwords longer than this many bytes.
	maxPasswordBytes = 72
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	letterPattern = regexp.MustCompile(`[A-Za-z]`)
	otherPattern  = regexp.MustCompile(`[^A-Za-z]`)
)

// Registration is the input to [Store.CreateUser].
type Registration struct {
	Username  string `json:"username" validate:"min=6"`
	Email     string `json:"email" validate:"email_format"`
	Password  string `json:"password" validate:"min=6,bcrypt_len,letter_mix"`
	FirstName string `json:"firstName" validate:"notblank,no_digits"`
	LastName  string `json:"lastName"`
	AvatarRef string `json:"avatarRef" validate:"notblank,avatar"`
}

// registrationMessages maps "Field.tag" (or "Field" for any tag) to the message shown to the user.
var registrationMessages = map[string]string{
	"Username":            fmt.Sprintf("Username must be at least %d characters long.", minUsernameLength),
	"Email":               "Invalid email format.",
	"Password.min":        fmt.Sprintf("Password must be at least %d characters long.", minPasswordLength),
	"Password.bcrypt_len": fmt.Sprintf("Password must be at most %d bytes long.", maxPasswordBytes),
	"Password.letter_mix": "Password must contain at least one letter and one non-letter character.",
	"FirstName.notblank":  "First name cannot be empty.",
	"FirstName.no_digits": "First name cannot contain digits.",
	"AvatarRef.notblank":  "Image URL cannot be empty.",
	"AvatarRef.avatar":    "Invalid image URL format.",
}

// newValidator returns a validator with the registration rules registered.
func newValidator() *validator.Validate {
	v := validator.New()

	rules := map[string]validator.Func{
		"notblank": func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		},
		"no_digits": func(fl validator.FieldLevel) bool {
			return !strings.ContainsAny(fl.Field().String(), "0123456789")
		},
		"bcrypt_len": func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= maxPasswordBytes
		},
		"letter_mix": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return letterPattern.MatchString(s) && otherPattern.MatchString(s)
		},
		"email_format": func(fl validator.FieldLevel) bool {
			return emailPattern.MatchString(fl.Field().String())
		},
		"avatar": func(fl validator.FieldLevel) bool {
			return ValidAvatarRef(fl.Field().String())
		},
	}

	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validation: %v", tag, err))
		}
	}
	return v
}

// ValidAvatarRef accepts a bundled .svg avatar filename or an absolute URL.
func ValidAvatarRef(ref string) bool {
	if strings.HasSuffix(ref, ".svg") {
		return true
	}
	u, err := url.Parse(ref)
	return err == nil && u.Scheme != ""
}

// validateRegistration returns the first failing rule, in field order, as an [shared.ErrValidation].
func (s *Store) validateRegistration(reg Registration) error {
	err := s.validate.Struct(reg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	first := verrs[0]
	msg, ok := registrationMessages[first.Field()+"."+first.Tag()]
	if !ok {
		msg, ok = registrationMessages[first.Field()]
	}
	if !ok {
		msg = first.Error()
	}
	return fmt.Errorf("%w: %s", shared.ErrValidation, msg)
}

// normalizeName trims a playlist name and rejects blank ones.
func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: Playlist name is required and cannot be empty", shared.ErrValidation)
	}
	return name, nil
}

// ParseRating parses a client supplied rating, requiring an integer in [1,10].
func ParseRating(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: Rating is required", shared.ErrValidation)
	}

	rating, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errRatingRange
	}
	return rating, checkRating(rating)
}

var errRatingRange = fmt.Errorf("%w: Rating must be a number between %d and %d", shared.ErrValidation, models.MinRating, models.MaxRating)

func checkRating(rating int) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return errRatingRange
	}
	return nil
}
