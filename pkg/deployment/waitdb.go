package deployment

import (
	"context"
	"net"
	"time"

	"github.com/comses/citation/pkg/utils/retry"
)

// WaitTCP blocks until addr accepts a TCP connection, retrying with
// exponential backoff, or until ctx is done. Deadline the context to
// bound the wait.
func WaitTCP(ctx context.Context, addr string) error {
	dialer := net.Dialer{Timeout: 1 * time.Second}

	_, err := retry.Blocking(
		ctx,
		retry.ExponentialBackoff(250*time.Millisecond, 2),
		func() (struct{}, error) {
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				if ctx.Err() != nil {
					return struct{}{}, ctx.Err()
				}
				return struct{}{}, retry.ErrRetry
			}
			conn.Close()
			return struct{}{}, nil
		},
	)
	return err
}
