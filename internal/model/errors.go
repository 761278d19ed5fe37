package model

import "errors"

// Common errors used across the application
var (
	// Assassin errors
	ErrAssassinNotFound      = errors.New("assassin not found")
	ErrBlankPseudonym        = errors.New("pseudonym must not be blank")
	ErrInitialPseudonym      = errors.New("the initial pseudonym cannot be deleted or time-gated")
	ErrInvalidPseudonymIndex = errors.New("invalid pseudonym index")
	ErrPseudonymNotValid     = errors.New("pseudonym is not valid at the event time")
	ErrDuplicateAssassin     = errors.New("assassin already exists")

	// Event errors
	ErrEventNotFound            = errors.New("event not found")
	ErrUnknownAssassinReference = errors.New("event references an unknown assassin")
	ErrDuplicateEvent           = errors.New("event already exists")
	ErrInvalidSubstitutionCode  = errors.New("invalid substitution code")
	ErrMissingEventDatetime     = errors.New("event datetime is required")

	// Generic state errors
	ErrStateKeyNotFound = errors.New("state key not found")

	// Validation errors
	ErrInvalidDatetime = errors.New("invalid datetime")
	ErrInvalidInteger  = errors.New("invalid integer")
	ErrInvalidFloat    = errors.New("invalid number")
)
