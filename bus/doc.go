// Package bus provides an in-process message bus for cooperative tasks.
//
// A Bus owns a dynamic set of channels addressed by small integer
// descriptors. Each channel is a bounded FIFO of uint32 values with its own
// capacity and two wait queues, one for blocked senders and one for blocked
// receivers. Transfers come in non-blocking (TrySend, TryRecv, ...) and
// blocking (Send, Recv, ...) flavours, plus an all-or-nothing Broadcast to
// every open channel and batch variants that move many values per call.
//
// A Bus is driven by a cooperative scheduler (see package sched): exactly one
// task touches it at a time and tasks switch only when a blocking operation
// suspends. A Bus is therefore not safe for use by goroutines that are not
// tasks of its scheduler.
package bus
