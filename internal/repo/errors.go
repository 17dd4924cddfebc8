package repo

import (
	"errors"
	"fmt"
)

// ErrCollectionFailed signals that the remote metric provider returned an
// error. The caller decides whether to retry; the core never retries on its
// own.
var ErrCollectionFailed = errors.New("metric collection failed")

// ErrPermissionDenied is a distinguished collection failure: the account
// lacks authorization for one or more resource types. Actionable (grant
// permissions) rather than transient, so it is surfaced separately while
// still matching ErrCollectionFailed via errors.Is.
var ErrPermissionDenied = fmt.Errorf("%w: permission denied", ErrCollectionFailed)
