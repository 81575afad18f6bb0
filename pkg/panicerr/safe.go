package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"
)

// Safe runs fn and turns a panic into an error so a single bad subscriber or
// background loop cannot take the server down.
func Safe(fn func() error) func() error {
	return func() error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn()
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}

func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		return Safe(func() error { return fn(ctx) })()
	}
}

// Go calls fn with panics recovered and hands any resulting error to onErr.
func Go(fn func(), onErr func(error)) {
	var catcher panics.Catcher
	catcher.Try(fn)
	if err := catcher.Recovered().AsError(); err != nil && onErr != nil {
		onErr(err)
	}
}
