// internal/browser/context.go
package browser

import (
	"context"
)

// CombineContext creates a context derived from primary that is canceled when
// either primary or secondary is done.
//
// primary is the session context. It carries the chromedp target, so every
// value lookup (the CDP executor in particular) must resolve against it.
// secondary is the caller's operation context and only contributes its
// cancellation and deadline. Values stored on secondary are not visible
// through the combined context.
//
// The returned CancelFunc must be called once the operation finishes. It
// detaches the link to secondary as well as canceling the combined context.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	// Derive from primary to inherit its values along with its own cancellation.
	combined, cancel := context.WithCancel(primary)

	// Link secondary's lifecycle to the combined context. AfterFunc runs cancel
	// when secondary is done; if secondary is already done it runs right away.
	stop := context.AfterFunc(secondary, cancel)

	return combined, func() {
		// Unregister first so a late cancellation of secondary does not fire
		// against a context that has already been released.
		stop()
		cancel()
	}
}
