// Package prom provides a Prometheus observer for the scheduler and the bus.
package prom
