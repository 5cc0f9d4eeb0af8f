package connmgr

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/maxpoletaev/gridlink/errs"
)

// BackoffConfig controls the wait between rounds of cluster connect attempts.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	// Jitter randomizes every wait by up to this fraction in both
	// directions, in the range [0, 1].
	Jitter float64
}

func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    time.Second,
		Max:        30 * time.Second,
		Multiplier: 1.05,
		Jitter:     0,
	}
}

func (c *BackoffConfig) Validate() error {
	switch {
	case c.Initial <= 0:
		return errs.ErrConfig.Wrap(fmt.Errorf("initial backoff must be positive"))
	case c.Max < c.Initial:
		return errs.ErrConfig.Wrap(fmt.Errorf("max backoff is less than the initial backoff"))
	case c.Multiplier < 1:
		return errs.ErrConfig.Wrap(fmt.Errorf("backoff multiplier must be at least 1"))
	case c.Jitter < 0 || c.Jitter > 1:
		return errs.ErrConfig.Wrap(fmt.Errorf("backoff jitter must be in [0, 1]"))
	}

	return nil
}

type backoff struct {
	conf    BackoffConfig
	current time.Duration
	rand    *rand.Rand
}

func newBackoff(conf BackoffConfig) *backoff {
	return &backoff{
		conf:    conf,
		current: conf.Initial,
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// next returns the wait before the next round and grows the base delay.
func (b *backoff) next() time.Duration {
	delay := b.current

	if b.conf.Jitter > 0 {
		delta := float64(delay) * b.conf.Jitter
		delay += time.Duration(delta * (2*b.rand.Float64() - 1))
	}

	grown := time.Duration(float64(b.current) * b.conf.Multiplier)
	if grown > b.conf.Max {
		grown = b.conf.Max
	}

	b.current = grown

	if delay < 0 {
		delay = 0
	}

	return delay
}
