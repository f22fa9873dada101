package domain

import "errors"

// Invariant violations. These indicate a programming error upstream; the
// operation is aborted and the caller keeps its previous document.
var (
	ErrIDChange         = errors.New("block id cannot be changed")
	ErrNoCurrentPage    = errors.New("document has no current page")
	ErrUnknownBlockType = errors.New("unknown block type")
	ErrContentMismatch  = errors.New("content does not match block type")
	ErrInvalidDocument  = errors.New("invalid document")
)
