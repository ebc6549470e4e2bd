package verify

import "github.com/zeebo/errs"

// Error is the class of every property violation.
var Error = errs.Class("verify")

var (
	ErrOrdering   = Error.New("closest result is not ordered")
	ErrInversion  = Error.New("distance orderings disagree")
	ErrMetric     = Error.New("xor metric property violated")
	ErrMembership = Error.New("closest result does not match the table")
)
