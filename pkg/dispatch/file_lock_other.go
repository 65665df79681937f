//go:build !unix

package dispatch

import "context"

// lockFile is a no-op where flock is unavailable; FileStore then serialises
// writers inside one process only.
func lockFile(ctx context.Context, path string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return func() {}, nil
}
