package id_tools

import "github.com/zeebo/errs"

// Error is the class of every error returned by this package.
var Error = errs.Class("id_tools")

var (
	ErrInvalidID       = Error.New("invalid node id")
	ErrIdentityMissing = Error.New("identity file not found")
	ErrIdentityInvalid = Error.New("identity does not match its key")
)
