package gmalloc

import "github.com/cockroachdb/errors"

// ErrOutOfMemory marks every allocation failure caused by the growth strategy refusing to
// extend the heap. Match it with errors.Is; the underlying grower error remains in the
// chain for logging.
var ErrOutOfMemory = errors.New("the growth strategy could not extend the heap")
