package fs

import (
	"context"
	"os"
)

// wraps os.Rename with retry logic.
// Callers must check that newPath is vacant: on Linux rename(2) silently
// replaces an empty directory.

func renameWithRetry(ctx context.Context, oldPath, newPath string) error {
	return retry(ctx, "rename", func() error {
		return os.Rename(oldPath, newPath)
	})
}
