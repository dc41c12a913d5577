// Package httpio holds the request decoding and response writing shared by HTTP handlers.
package httpio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// Validate runs the struct's validate tags.
func Validate(v any) error {
	return validate.Struct(v)
}

// DecodeJSON reads a JSON body into dst and validates it.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errs.Validation("", "invalid JSON body")
	}

	return Validate(dst)
}

// ParseID reads a positive int64 path parameter.
func ParseID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Validation(name, "must be a positive integer")
	}

	return id, nil
}

// WriteJSON writes body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error writing response", "error", err)
	}
}

// WriteError maps a domain error to its status code. Unknown errors become a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}

	WriteJSON(w, status, body)
}

func errorResponse(err error) (int, ErrorResponse) {
	var (
		validationErr  *errs.ValidationError
		fieldErrs      validator.ValidationErrors
		notFoundErr    *errs.NotFoundError
		unavailableErr *errs.UnavailableError
		conflictErr    *errs.ConflictError
	)

	switch {
	case errors.As(err, &fieldErrs):
		body := ErrorResponse{Message: "validation failed"}
		for _, fe := range fieldErrs {
			body.Errors = append(body.Errors, FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
		}

		return http.StatusBadRequest, body
	case errors.As(err, &validationErr):
		body := ErrorResponse{Message: validationErr.Error()}
		if validationErr.Field != "" {
			body.Errors = []FieldError{{Field: validationErr.Field, Message: validationErr.Reason}}
		}

		return http.StatusBadRequest, body
	case errors.As(err, &unavailableErr):
		return http.StatusBadRequest, ErrorResponse{Message: unavailableErr.Error()}
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, ErrorResponse{Message: notFoundErr.Error()}
	case errors.As(err, &conflictErr):
		return http.StatusConflict, ErrorResponse{Message: conflictErr.Error()}
	case errors.Is(err, errs.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrorResponse{Message: "authentication required"}
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Message: "insufficient permissions"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Message: "internal server error"}
	}
}

// fieldPath drops the top-level struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}

	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
