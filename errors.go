package storm

import "github.com/johanneslatzel/storm/storeerr"

// Kind and Error are re-exported from storeerr so callers never need to
// import it directly.
type (
	Kind  = storeerr.Kind
	Error = storeerr.Error
)

// Error kinds, re-exported from storeerr.
const (
	KindNotFound        = storeerr.KindNotFound
	KindClosed          = storeerr.KindClosed
	KindInvalidArgument = storeerr.KindInvalidArgument
	KindInvalidState    = storeerr.KindInvalidState
	KindIO              = storeerr.KindIO
	KindCorruption      = storeerr.KindCorruption
)

// IsKind reports whether err is, or wraps, a storm Error of the given
// Kind.
func IsKind(err error, k Kind) bool { return storeerr.Is(err, k) }
