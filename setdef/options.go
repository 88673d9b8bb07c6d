package setdef

import (
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/rwf/internal/options"
)

// GlobalDbOption configures a GlobalDb.
type GlobalDbOption = options.Option[*globalConfig]

type globalConfig struct {
	logger     log.Logger
	registerer prometheus.Registerer
}

func newGlobalConfig() *globalConfig {
	return &globalConfig{logger: log.NewNopLogger()}
}

// WithLogger sets the logger used for load and clear events.
func WithLogger(logger log.Logger) GlobalDbOption {
	return options.NoError(func(c *globalConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithRegisterer registers the database metrics with reg.
func WithRegisterer(reg prometheus.Registerer) GlobalDbOption {
	return options.NoError(func(c *globalConfig) {
		c.registerer = reg
	})
}
