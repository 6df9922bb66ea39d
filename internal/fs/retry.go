package fs

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
)

// implements per-call retry with exponential backoff for transient errors.
// Permanent errors are returned on the first attempt.

const maxRetries = 5

func retry(ctx context.Context, opName string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		err := fn()
		if err != nil && !isTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(maxRetries))
	if err == nil {
		return nil
	}

	if isTransient(err) {
		return errors.Wrapf(err, "%s failed after %d attempts", opName, attempts)
	}
	return errors.Wrapf(err, "%s failed permanently", opName)
}
