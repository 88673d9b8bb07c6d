package dictionary

import (
	"fmt"

	"github.com/go-kit/log"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/internal/options"
)

// Option configures an Encoder, a Decoder or a snapshot operation.
type Option = options.Option[*config]

type config struct {
	maxPartSize int
	compression format.CompressionType
	logger      log.Logger
}

func newConfig(opts ...Option) (*config, error) {
	cfg := &config{
		compression: format.CompressionZstd,
		logger:      log.NewNopLogger(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithMaxPartSize limits each encoded part to about n bytes. A part always holds at
// least one definition. 0, the default, limits parts only by the encode buffer.
func WithMaxPartSize(n int) Option {
	return options.New(func(c *config) error {
		if n < 0 {
			return fmt.Errorf("%w: max part size %d", errs.ErrInvalidArgument, n)
		}
		c.maxPartSize = n

		return nil
	})
}

// WithCompression selects the snapshot compression. The default is Zstd.
func WithCompression(ct format.CompressionType) Option {
	return options.New(func(c *config) error {
		switch ct {
		case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
			c.compression = ct
			return nil
		default:
			return fmt.Errorf("%w: compression type %s", errs.ErrInvalidArgument, ct)
		}
	})
}

// WithLogger sets the logger for part and snapshot events.
func WithLogger(logger log.Logger) Option {
	return options.NoError(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}
