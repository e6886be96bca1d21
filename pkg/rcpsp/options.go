package rcpsp

import (
	"github.com/gitrdm/gokando-rcpsp/pkg/cp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultDecay is the rating decay factor of the failure-directed search.
const DefaultDecay = 0.99

type options struct {
	logger  logrus.FieldLogger
	metrics *Metrics
	decay   float64
}

// Option configures a propagator or the search heuristic.
type Option func(*options)

// WithLogger sets the logger used for debug traces. The default is the
// logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithDecay sets the rating decay factor of the failure-directed search.
// Other components ignore it.
func WithDecay(decay float64) Option {
	return func(o *options) { o.decay = decay }
}

func buildOptions(opts []Option) options {
	o := options{
		logger: logrus.StandardLogger(),
		decay:  DefaultDecay,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// failureFields describes a failed propagation for the debug log.
func failureFields(err error) logrus.Fields {
	fields := logrus.Fields{logrus.ErrorKey: err}
	var c *cp.Contradiction
	if errors.As(err, &c) {
		fields["cause"] = c.Cause
		if c.Var != "" {
			fields["variable"] = c.Var
		}
	}
	return fields
}
