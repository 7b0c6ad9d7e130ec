// Package observe combines observers for the scheduler and the bus.
// Concrete observers live in the prom and logging subpackages.
package observe
