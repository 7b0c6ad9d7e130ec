// Package sched provides a cooperative task scheduler for Go.
// Tasks run one at a time and switch only at explicit suspension points
// (Suspend, Yield, return), which lets data structures shared between tasks
// go without locks. The scheduler owns the tasks it spawns, provides a join
// point (Run), and propagates errors according to a policy.
package sched
