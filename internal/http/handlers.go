package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

var (
	errMalformed    = errors.New("malformed request")
	errUnauthorized = errors.New("missing bearer token")
)

// validationErrors map to 422.
var validationErrors = []error{
	core.ErrInvalidType,
	core.ErrInvalidAmount,
	core.ErrEmptyDescription,
	core.ErrDescriptionTooLong,
	core.ErrInvalidDate,
	core.ErrEmptyName,
	core.ErrNameTooLong,
	core.ErrInvalidMonthKey,
	core.ErrInvalidFrequency,
	core.ErrInvalidStatus,
	core.ErrInvalidEmail,
	core.ErrUnknownCurrency,
	core.ErrUnknownCategoryName,
	services.ErrInvalidTheme,
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor is the single place sentinel errors become status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errMalformed):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, core.ErrInvalidShareToken),
		errors.Is(err, core.ErrMissingUser):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrForbidden), errors.Is(err, core.ErrShareRevoked):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrSharingDisabled):
		return http.StatusServiceUnavailable
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return log.ErrorTypeValidation
	case http.StatusUnauthorized:
		return log.ErrorTypeAuth
	case http.StatusForbidden:
		return log.ErrorTypeForbidden
	case http.StatusNotFound:
		return log.ErrorTypeNotFound
	default:
		return log.ErrorTypeInternal
	}
}

// writeError logs err and answers with its mapped status. Server errors are
// reported without their detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	ctx := r.Context()
	if status >= http.StatusInternalServerError {
		fields := log.NewFields().WithErrorType(errorType(status))
		if user, ok := auth.UserFrom(ctx); ok {
			fields = fields.WithUser(user)
		}
		s.structured.LogError(ctx, "Request failed", err, log.ComponentFinance, op, fields)
		msg := "internal error"
		if status == http.StatusServiceUnavailable {
			msg = err.Error()
		}
		writeJSON(w, status, errorBody{Error: msg})
		return
	}
	log.FromContext(ctx).DebugContext(ctx, "Request rejected",
		log.FieldOperation, op,
		log.FieldStatusCode, status,
		log.FieldErrorType, errorType(status),
		log.FieldError, err)
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object from the body, rejecting unknown
// fields and trailing data. Field-level validation errors such as a bad
// amount or date keep their sentinel so they map to 422.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		for _, sentinel := range validationErrors {
			if errors.Is(err, sentinel) {
				return err
			}
		}
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must contain a single JSON object", errMalformed)
	}
	return nil
}

// requireUser authenticates the bearer token and stores its subject.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			s.writeError(w, r, "authenticate", errUnauthorized)
			return
		}
		if s.signer == nil {
			s.writeError(w, r, "authenticate", auth.ErrInvalidToken)
			return
		}
		userID, err := s.signer.VerifyUserToken(strings.TrimSpace(token))
		if err != nil {
			s.writeError(w, r, "authenticate", err)
			return
		}
		ctx := auth.WithUser(r.Context(), userID)
		ctx = log.WithLogger(ctx, log.FromContext(ctx).With(log.FieldUserID, userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userID is only called behind requireUser.
func userID(r *http.Request) string {
	id, _ := auth.UserFrom(r.Context())
	return id
}
