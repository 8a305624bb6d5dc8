package domain

import "errors"

// Error kinds shared by the collaborators and the tracker. Wrap them with
// fmt.Errorf("...: %w", ErrX) and test with errors.Is.
var (
	ErrFetch       = errors.New("fetch failed")
	ErrParse       = errors.New("malformed payload")
	ErrDispatch    = errors.New("dispatch failed")
	ErrPersistence = errors.New("persistence failed")
)
