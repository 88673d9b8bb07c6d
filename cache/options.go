package cache

import (
	"fmt"

	"github.com/go-kit/log"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/internal/options"
	"github.com/arloliu/rwf/setdef"
)

// DefaultMaxEntries bounds the number of slots a VectorCache grows to.
const DefaultMaxEntries = 1 << 20

// Option configures a MapCache or VectorCache.
type Option = options.Option[*config]

type config struct {
	resolver   setdef.FieldResolver
	maxEntries int
	logger     log.Logger
}

func newConfig(opts ...Option) (*config, error) {
	cfg := &config{
		maxEntries: DefaultMaxEntries,
		logger:     log.NewNopLogger(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithResolver sets the resolver used for set-defined field list payloads.
func WithResolver(r setdef.FieldResolver) Option {
	return options.NoError(func(c *config) {
		c.resolver = r
	})
}

// WithMaxEntries limits a VectorCache to n slots. Entries addressing a position at
// or beyond the limit reject the whole message.
func WithMaxEntries(n int) Option {
	return options.New(func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("%w: max entries %d", errs.ErrInvalidArgument, n)
		}
		c.maxEntries = n

		return nil
	})
}

// WithLogger sets the logger receiving per-message apply summaries at debug level.
func WithLogger(logger log.Logger) Option {
	return options.NoError(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}
