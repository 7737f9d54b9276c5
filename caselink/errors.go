package caselink

import "errors"

var (
	// ErrInvalidRuleTable reports a rule table whose labels do not agree with
	// its enumeration.
	ErrInvalidRuleTable = errors.New("invalid rule table")
	// ErrInvalidConfig reports a configuration that failed validation.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrMalformedRecord terminates a run when a record cannot be interpreted.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrUnavailable is returned by a similarity source that cannot embed.
	ErrUnavailable = errors.New("similarity capability unavailable")
)
