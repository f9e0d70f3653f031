package service

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConflict      = errors.New("conflict")
	ErrDuplicateName = errors.New("duplicate name")

	// ErrCapacityRace marks the internal condition where a selected zone
	// filled up between selection and increment. The admission engine
	// recovers from it by downgrading to Warn; it never reaches handlers.
	ErrCapacityRace = errors.New("zone capacity exhausted")
)
