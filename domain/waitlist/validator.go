package waitlist

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const emailTag = "waitlist_email"

// A run of anything but whitespace or '@', an '@', another run, a '.', and a final run.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation(emailTag, func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// NormalizeEmail lower-cases and trims an address. The result is the uniqueness key.
func NormalizeEmail(email string) string {
	return strings.TrimFunc(cases.Lower(language.Und).String(email), isEmailSpace)
}

// isEmailSpace is the set the pattern rejects inside an address: ASCII whitespace, the Unicode
// separators and U+FEFF. U+0085 is not whitespace here.
func isEmailSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\uFEFF':
		return true
	}
	return unicode.In(r, unicode.Zs, unicode.Zl, unicode.Zp)
}

// ValidateEmail accepts the decoded "email" member of a request body. Anything that is not a
// non-empty string is ErrEmailRequired.
func ValidateEmail(raw any) (string, error) {
	email, ok := raw.(string)
	if !ok || email == "" {
		return "", ErrEmailRequired
	}

	normalized := NormalizeEmail(email)
	if err := validate.Var(normalized, emailTag); err != nil {
		return "", wrap(ErrInvalidEmailFormat, err)
	}
	return normalized, nil
}
