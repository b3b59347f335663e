package verification

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("socialurl", validateSocialURL)
	})
	return validate
}

// socialHosts restricts main social inputs to their platform's domain.
var socialHosts = map[string][]string{
	SocialTwitter:   {"twitter.com", "x.com"},
	SocialFacebook:  {"facebook.com", "fb.com"},
	SocialLinkedIn:  {"linkedin.com"},
	SocialInstagram: {"instagram.com"},
	SocialYouTube:   {"youtube.com", "youtu.be"},
}

// validateSocialURL accepts an absolute http(s) url; the param names the
// platform whose host list applies.
func validateSocialURL(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return true
	}
	return socialURLOK(fl.Param(), raw)
}

func socialURLOK(platform, raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	hosts, ok := socialHosts[platform]
	if !ok {
		return true
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// validateStruct converts validator failures into a ValidationError keyed by
// json field name.
func validateStruct(v any) *ValidationError {
	verr := &ValidationError{}
	err := structValidator().Struct(v)
	if err == nil {
		return verr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.add("form", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.add(fieldKey(fe), fieldMessage(fe))
	}
	return verr
}

func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url", "socialurl":
		return "must be a valid link"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	default:
		return "invalid value"
	}
}
