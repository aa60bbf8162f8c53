package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/vecgate/internal/domain"
)

const maxBodyBytes = 64 << 20

var validate = newValidator()

// newValidator reports fields under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// normalizer is implemented by requests that resolve field aliases after decoding.
type normalizer interface {
	normalize()
}

// decodeBody strictly decodes a JSON body into dst and validates it.
// Every failure is a validation error carrying field locations.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	if err := validate.Struct(dst); err != nil {
		return structError(err)
	}
	return nil
}

func decodeError(err error) *domain.Error {
	var (
		typeErr *json.UnmarshalTypeError
		syntax  *json.SyntaxError
		tooBig  *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return domain.NewValidation("request body is required", domain.FieldError{
			Loc: []string{"body"}, Msg: "field required", Type: "value_error.missing",
		})
	case errors.As(err, &typeErr):
		loc := []string{"body"}
		if typeErr.Field != "" {
			loc = append(loc, strings.Split(typeErr.Field, ".")...)
		}
		msg := fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value)
		return domain.NewValidation(msg, domain.FieldError{Loc: loc, Msg: msg, Type: "type_error"})
	case errors.As(err, &syntax):
		msg := fmt.Sprintf("invalid JSON at offset %d", syntax.Offset)
		return domain.NewValidation(msg, domain.FieldError{Loc: []string{"body"}, Msg: msg, Type: "value_error.jsondecode"})
	case errors.As(err, &tooBig):
		msg := fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit)
		return domain.NewValidation(msg, domain.FieldError{Loc: []string{"body"}, Msg: msg, Type: "value_error"})
	}

	// encoding/json has no typed error for unknown fields
	if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		name, _ := strconv.Unquote(field)
		return domain.NewValidation("extra fields not permitted", domain.FieldError{
			Loc: []string{"body", name}, Msg: "extra fields not permitted", Type: "value_error.extra",
		})
	}
	return domain.NewValidation(err.Error(), domain.FieldError{
		Loc: []string{"body"}, Msg: err.Error(), Type: "value_error.jsondecode",
	})
}

func structError(err error) *domain.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidation(err.Error())
	}
	details := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, typ := describe(fe)
		details = append(details, domain.FieldError{
			Loc:  append([]string{"body"}, namespaceLoc(fe.Namespace())...),
			Msg:  msg,
			Type: typ,
		})
	}
	return domain.NewValidation("request validation failed", details...)
}

// namespaceLoc turns "queryRequest.query_embeddings[1]" into ["query_embeddings", "1"].
func namespaceLoc(ns string) []string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		return nil
	}
	var loc []string
	for _, part := range strings.Split(rest, ".") {
		for {
			i := strings.IndexByte(part, '[')
			if i < 0 {
				break
			}
			if i > 0 {
				loc = append(loc, part[:i])
			}
			j := strings.IndexByte(part, ']')
			if j < i {
				break
			}
			loc = append(loc, part[i+1:j])
			part = part[j+1:]
		}
		if part != "" {
			loc = append(loc, part)
		}
	}
	return loc
}

func describe(fe validator.FieldError) (msg, typ string) {
	collection := false
	switch fe.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		collection = true
	}

	switch fe.Tag() {
	case "required":
		return "field required", "value_error.missing"
	case "min":
		if collection {
			return fmt.Sprintf("ensure this value has at least %s items", fe.Param()), "value_error.list.min_items"
		}
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param()), "value_error.number.not_ge"
	case "max":
		if collection {
			return fmt.Sprintf("ensure this value has at most %s items", fe.Param()), "value_error.list.max_items"
		}
		return fmt.Sprintf("ensure this value is less than or equal to %s", fe.Param()), "value_error.number.not_le"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag()), "value_error." + fe.Tag()
	}
}

// bindQuery binds one form-style query parameter into dest.
func bindQuery(r *http.Request, name string, required bool, dest any) error {
	q := r.URL.Query()
	if required && q.Get(name) == "" {
		return domain.NewValidation(name+" is required", domain.FieldError{
			Loc: []string{"query", name}, Msg: "field required", Type: "value_error.missing",
		})
	}
	if err := runtime.BindQueryParameter("form", true, required, name, q, dest); err != nil {
		return domain.NewValidation("invalid query parameter "+name, domain.FieldError{
			Loc: []string{"query", name}, Msg: err.Error(), Type: "type_error",
		})
	}
	return nil
}
