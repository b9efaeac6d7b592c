package dto

import (
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	providerIDRe  = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	routingCodeRe = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("provider_id", validateProviderID)
		_ = v.RegisterValidation("routing_code", validateRoutingCode)
	}
}

// validateProviderID accepts provider object ids such as order_Nx3f9K2abc.
func validateProviderID(fl validator.FieldLevel) bool {
	return providerIDRe.MatchString(fl.Field().String())
}

// validateRoutingCode accepts IFSC codes: four bank letters, a zero, six branch characters.
func validateRoutingCode(fl validator.FieldLevel) bool {
	return routingCodeRe.MatchString(strings.ToUpper(fl.Field().String()))
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(sanitize(elem.String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
