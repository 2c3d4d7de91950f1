package lifecycle

import "errors"

// Transition error kinds. Every engine operation returns exactly one of
// these (possibly wrapped) or nil; the router layer maps each kind to an
// HTTP status and machine-readable code.
var (
	// ErrMosqueNotFound indicates the mosque id did not resolve.
	ErrMosqueNotFound = errors.New("mosque not found")
	// ErrAdminNotFound indicates the admin id did not resolve.
	ErrAdminNotFound = errors.New("admin not found")
	// ErrWrongCode indicates the presented code does not match the mosque's
	// current verification code.
	ErrWrongCode = errors.New("verification code does not match")
	// ErrCodeExpired indicates the mosque's current code is past its expiry.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrAlreadyStaffed indicates the mosque already has a pending or
	// approved admin. When returned from Apply or Reapply the mosque's code
	// has been rotated (breach handling).
	ErrAlreadyStaffed = errors.New("mosque already has an active admin")
	// ErrWrongStatus indicates the admin is not in a status from which the
	// requested transition is legal.
	ErrWrongStatus = errors.New("transition not allowed from current status")
	// ErrReapplyNotAllowed indicates the admin's reapplication gate is
	// closed or the rejection threshold has been reached.
	ErrReapplyNotAllowed = errors.New("reapplication not permitted")
	// ErrReasonTooShort indicates a reject/remove reason below the
	// configured minimum length.
	ErrReasonTooShort = errors.New("reason too short")
	// ErrConflict indicates the commit lost a race against a concurrent
	// transition; the caller should reread state before retrying.
	ErrConflict = errors.New("concurrent transition won")
	// ErrStorage indicates the underlying store failed; distinct from
	// ErrConflict so callers do not retry blindly.
	ErrStorage = errors.New("storage unavailable")
)
