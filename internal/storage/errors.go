package storage

import "errors"

var (
	// ErrNotAnInteger is INCR's error when the stored string doesn't parse
	// as a base-10 integer.
	ErrNotAnInteger = errors.New("ERR value is not an integer or out of range")

	// ErrEqualOrSmallerID and ErrGreaterThanZeroZero carry the exact
	// user-visible text required by §4.2's stream append algorithm.
	ErrEqualOrSmallerID = errors.New(
		"ERR The ID specified in XADD is equal or smaller than the target stream top item")
	ErrGreaterThanZeroZero = errors.New(
		"ERR The ID specified in XADD must be greater than 0-0")
)
