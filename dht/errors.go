package dht

import "github.com/zeebo/errs"

// Error is the class of every error returned by this package.
var Error = errs.Class("dht")

var (
	// ErrInvalidSelf is returned when the local id is inserted into, removed
	// from or used as a replacement in its own routing table.
	ErrInvalidSelf = Error.New("local id cannot be a member of its own routing table")

	// ErrCandidateMismatch is returned by Replace when the contact named for
	// eviction is not in the newcomer's bucket.
	ErrCandidateMismatch = Error.New("eviction candidate is not in the newcomer's bucket")

	// ErrInvariant wraps every failure reported by Validate.
	ErrInvariant = Error.New("routing table invariant violated")
)
