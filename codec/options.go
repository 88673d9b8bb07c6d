package codec

import (
	"fmt"

	"github.com/arloliu/rwf/errs"
	"github.com/arloliu/rwf/format"
	"github.com/arloliu/rwf/internal/options"
)

// MaxDepth is the largest nesting depth an iterator supports.
const MaxDepth = 16

// IteratorOption configures an EncodeIterator or DecodeIterator.
type IteratorOption = options.Option[*iteratorConfig]

type iteratorConfig struct {
	major    uint8
	minor    uint8
	maxDepth int
}

func newIteratorConfig(opts ...IteratorOption) (*iteratorConfig, error) {
	cfg := &iteratorConfig{
		major:    format.MajorVersion,
		minor:    format.DefaultMinorVersion,
		maxDepth: MaxDepth,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithVersion selects the RWF wire version. Only major version 14 with minor
// version 0 or 1 is supported.
func WithVersion(major, minor uint8) IteratorOption {
	return options.New(func(c *iteratorConfig) error {
		if major != format.MajorVersion || minor > format.MinorVersion1 {
			return fmt.Errorf("%w: %d.%d", errs.ErrUnsupportedVersion, major, minor)
		}
		c.major, c.minor = major, minor

		return nil
	})
}

// WithMaxDepth limits the nesting depth to n, which must be in [1, MaxDepth].
func WithMaxDepth(n int) IteratorOption {
	return options.New(func(c *iteratorConfig) error {
		if n < 1 || n > MaxDepth {
			return fmt.Errorf("%w: max depth %d not in [1, %d]", errs.ErrInvalidArgument, n, MaxDepth)
		}
		c.maxDepth = n

		return nil
	})
}
