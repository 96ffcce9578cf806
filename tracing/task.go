// Package tracing collects per-frame task traces from the simulated
// components.
package tracing

import "github.com/slaclab/surfsim/sim"

// A Task is one traced activity, such as one frame moving through the
// buffering pipeline.
type Task struct {
	ID        string         `json:"id"`
	ParentID  string         `json:"parent_id"`
	Kind      string         `json:"kind"`
	What      string         `json:"what"`
	Where     string         `json:"where"`
	StartTime sim.VTimeInSec `json:"start_time"`
	EndTime   sim.VTimeInSec `json:"end_time"`
	Detail    interface{}    `json:"-"`
}

// A Tracer can collect task traces.
type Tracer interface {
	StartTask(task Task)
	StepTask(task Task)
	EndTask(task Task)
}
