package sluice

import (
	"github.com/joeycumines/logiface"
)

// options holds configuration applied during handle construction.
type options struct {
	logger *logiface.Logger[logiface.Event]
}

// Option configures a Reader or Writer at construction.
type Option interface {
	applyOption(*options) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyOptionFunc func(*options) error
}

func (o *optionImpl) applyOption(opts *options) error {
	return o.applyOptionFunc(opts)
}

// WithLogger attaches a structured logger, used to surface teardown
// failures that have no caller to return to (construction unwind,
// reclamation, the [CloseAll] sweep) and to trace handle lifecycle
// events. By default no logger is configured and nothing is logged.
func WithLogger[E logiface.Event](logger *logiface.Logger[E]) Option {
	return &optionImpl{func(opts *options) error {
		opts.logger = logger.Logger()
		return nil
	}}
}

// resolveOptions applies Option instances to options.
func resolveOptions(opts []Option) (*options, error) {
	cfg := &options{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyOption(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
