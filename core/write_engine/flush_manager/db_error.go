package flushmanager

import "errors"

// --- Error Definitions ---

var (
	// Caller-visible, reported without partial mutation.
	ErrDuplicateKey         = errors.New("duplicate key")
	ErrMissingRecord        = errors.New("insert statement carries no record")
	ErrStructuralCorruption = errors.New("structural corruption")

	// Page cache / file access.
	ErrPageNotFound   = errors.New("page not found")
	ErrPageMutFailure = errors.New("cannot obtain page for modification")
	ErrPageNotCached  = errors.New("allocated page was never loaded before flush")
	ErrIO             = errors.New("i/o error")
	ErrFileNotOpen    = errors.New("database file not open")

	// Page format.
	ErrSerialization   = errors.New("error during serialization")
	ErrDeserialization = errors.New("error during deserialization")
	ErrInvalidNodeType = errors.New("unexpected node type")
	ErrNodeOverflow    = errors.New("node cell count exceeds page capacity")
)
