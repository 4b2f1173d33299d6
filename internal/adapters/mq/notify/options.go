package notify

import "github.com/gigmatch/gigmatch/pkg/logger"

// Default dispatcher configuration constants.
const (
	defaultCapacity = 1024
	defaultWorkers  = 2
)

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithCapacity bounds the notification queue.
func WithCapacity(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.capacity = n
		}
	}
}

// WithWorkers sets the number of delivery workers.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithLogger sets a custom logger for the dispatcher.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}
