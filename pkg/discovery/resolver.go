package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/spacecrew/btscan/internal/log"
	"github.com/spacecrew/btscan/pkg/platform"
)

const (
	DefaultNameInterval = time.Second
	DefaultNameTimeout  = 10 * time.Second
)

// ErrNameTimeout is returned by [Resolver.Resolve] when the platform did not produce a name in
// time.
var ErrNameTimeout = errors.New("discovery: name not available before timeout")

// Resolver waits for the platform to learn the name of a device. Interval and Timeout fall back
// to DefaultNameInterval and DefaultNameTimeout when not positive.
type Resolver struct {
	Names    platform.NameAccessor
	Interval time.Duration
	Timeout  time.Duration
}

func NewResolver(names platform.NameAccessor) *Resolver {
	return &Resolver{
		Names:    names,
		Interval: DefaultNameInterval,
		Timeout:  DefaultNameTimeout,
	}
}

// Resolve polls the platform every r.Interval until it reports a non-empty name for address and
// returns it. If r.Timeout elapses first, Resolve returns ErrNameTimeout. If ctx is canceled,
// Resolve returns ctx.Err().
//
// Errors from the name accessor are not fatal; the device may simply not be known to the
// platform yet.
func (r *Resolver) Resolve(ctx context.Context, address string) (string, error) {
	interval, timeout := r.Interval, r.Timeout
	if interval <= 0 {
		interval = DefaultNameInterval
	}
	if timeout <= 0 {
		timeout = DefaultNameTimeout
	}

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-pollCtx.Done():
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return "", ErrNameTimeout
		case <-ticker.C:
			name, err := r.Names.DeviceName(pollCtx, address)
			if err != nil {
				log.Debug("Name of %s not available: %s", address, err)
				continue
			}
			if name != "" {
				return name, nil
			}
		}
	}
}
