package pulse

import "errors"

// Domain-level errors for the proximity pulse behaviors.
// Validation-class errors are recoverable client-side and must never surface
// as system faults; authorization and not-found get their own identities so
// the presentation layer can map them to distinct status codes.
var (
	ErrOwnerRequired      = errors.New("pulse: owner id is required")
	ErrUnknownType        = errors.New("pulse: unsupported artifact type")
	ErrInvalidCoordinates = errors.New("pulse: latitude/longitude out of range")
	ErrRadiusOutOfRange   = errors.New("pulse: visibility radius out of bounds")
	ErrContentBlocked     = errors.New("pulse: content contains disallowed contact or link information")
	ErrContentLength      = errors.New("pulse: content length invalid")
	ErrDailyCapExceeded   = errors.New("pulse: daily posting cap reached for this type")
	ErrProfileIncomplete  = errors.New("pulse: requester profile is missing or incomplete")
	ErrNotOwner           = errors.New("pulse: only the owner may remove an artifact")
	ErrArtifactNotFound   = errors.New("pulse: artifact not found")
)
