// Package logging provides a log/slog observer for the scheduler and the bus.
// Events go out at debug level except cancellations and task failures.
package logging
