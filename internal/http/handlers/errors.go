package handlers

// Stable machine-readable error codes returned in ErrorResponse.Code.
const (
	codeBadRequest    = "bad_request"
	codeNotFound      = "not_found"
	codeConflict      = "conflict"
	codeInternalError = "internal_error"
)
