package models

import "errors"

var (
	// ErrNotFound is returned when an input file does not exist.
	ErrNotFound = errors.New("not found")
	// ErrParse is returned for malformed tabular or geometry data.
	ErrParse = errors.New("parse error")
	// ErrEmptyGroup is returned when a dissolve is asked to merge nothing.
	ErrEmptyGroup = errors.New("empty group")
	// ErrWrite is returned when an output file cannot be written.
	ErrWrite = errors.New("write error")
	// ErrProvinceConflict is returned when a city is listed under more than
	// one province and the conflict policy does not allow it.
	ErrProvinceConflict = errors.New("province conflict")
	// ErrInvalidOption is returned for an unknown group key, metric,
	// granularity or colour scale.
	ErrInvalidOption = errors.New("invalid option")
)
