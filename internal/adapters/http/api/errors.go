package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/okian/bingonight/internal/domain/errs"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrMissingSecret = errors.New("host secret is required")
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// kindStatus maps error kinds onto HTTP status codes and response codes.
var kindStatus = []struct {
	kind   error
	status int
	code   string
}{
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{errs.ErrNotFound, http.StatusNotFound, "not_found"},
	{errs.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{errs.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{errs.ErrAlreadyClaimed, http.StatusConflict, "already_claimed"},
	{errs.ErrAlreadyAnswered, http.StatusConflict, "already_answered"},
	{errs.ErrTimeExpired, http.StatusConflict, "time_expired"},
	{errs.ErrLimitReached, http.StatusConflict, "limit_reached"},
	{errs.ErrInvalidState, http.StatusConflict, "invalid_state"},
}

// classify returns the status and response code for err.
func classify(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case http.StatusNotFound:
			return fe.Code, "not_found"
		case http.StatusMethodNotAllowed:
			return fe.Code, "method_not_allowed"
		default:
			if fe.Code < http.StatusInternalServerError {
				return fe.Code, "bad_request"
			}
			return fe.Code, "internal"
		}
	}
	for _, ks := range kindStatus {
		if errors.Is(err, ks.kind) {
			return ks.status, ks.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// badRequest classifies err as a malformed request produced by op.
func badRequest(op string, err error) error {
	return errs.WrapKind(op, ErrBadRequest, err)
}

func errMissing(field string) error {
	return fmt.Errorf("missing %s", field)
}
