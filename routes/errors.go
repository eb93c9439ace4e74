package routes

import "errors"

var (
	// ErrEmptyTable is returned when a table is built without records.
	ErrEmptyTable = errors.New("route table is empty")
	// ErrInvalidPath is returned for a path that is empty, relative, or not a valid pattern.
	ErrInvalidPath = errors.New("invalid route path")
	// ErrMissingName is returned for a non-redirect record without a name.
	ErrMissingName = errors.New("route name required")
	// ErrDuplicateName is returned when two records share a name.
	ErrDuplicateName = errors.New("duplicate route name")
	// ErrDuplicatePath is returned when two records declare the same pattern.
	ErrDuplicatePath = errors.New("duplicate route path")
	// ErrWildcardMissing is returned when no catch-all record is declared.
	ErrWildcardMissing = errors.New("wildcard route missing")
	// ErrWildcardNotLast is returned when the catch-all record is not the last record.
	ErrWildcardNotLast = errors.New("wildcard route must be last")
	// ErrRedirectTarget is returned when a redirect does not land on a concrete record.
	ErrRedirectTarget = errors.New("invalid redirect target")
	// ErrRouteNotFound is returned by name lookups for unknown names.
	ErrRouteNotFound = errors.New("route not found")
)
