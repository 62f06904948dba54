package repository

import "github.com/okian/bingonight/internal/domain/errs"

// Sentinel kinds for store errors. Both classify under the domain error kinds
// so callers may test either.
var (
	ErrNotFound      = errs.ErrRecordNotFound
	ErrConflict      = errs.ErrDuplicate
	ErrUnknownDriver = errs.Invalidf("unknown store driver")
	ErrMissingDSN    = errs.Invalidf("store dsn is required")
)
