package models

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("coverimage", validCoverImage); err != nil {
		panic(err)
	}
	return v
}

// IsDataImage reports whether s is an inline base64 image reference.
func IsDataImage(s string) bool {
	if !strings.HasPrefix(s, "data:image/") {
		return false
	}
	header, _, ok := strings.Cut(s, ",")
	return ok && strings.HasSuffix(header, ";base64")
}

func validCoverImage(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if IsDataImage(s) {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
