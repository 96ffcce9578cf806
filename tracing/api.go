package tracing

import (
	"fmt"
	"reflect"

	"github.com/slaclab/surfsim/sim"
)

// HookPosTaskStart marks the start of a task.
var HookPosTaskStart = &sim.HookPos{Name: "Task Start"}

// HookPosTaskStep marks a milestone during a task.
var HookPosTaskStep = &sim.HookPos{Name: "Task Step"}

// HookPosTaskEnd marks the end of a task.
var HookPosTaskEnd = &sim.HookPos{Name: "Task End"}

// A Domain is a component that tasks can be traced on.
type Domain interface {
	sim.NamedHookable
	sim.TimeTeller
}

// CollectTrace lets the tracer collect traces from a domain.
func CollectTrace(domain sim.NamedHookable, tracer Tracer) {
	for _, hook := range domain.Hooks() {
		hook, ok := hook.(*traceHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf("domain %s already has tracer %s",
				domain.Name(), reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(&traceHook{t: tracer})
}

// StartTask notifies the tracers on the domain that a task has started.
func StartTask(
	id, parentID string,
	domain Domain,
	kind, what string,
	detail interface{},
) {
	task := Task{
		ID:        id,
		ParentID:  parentID,
		Kind:      kind,
		What:      what,
		Where:     domain.Name(),
		StartTime: domain.CurrentTime(),
		Detail:    detail,
	}

	domain.InvokeHook(sim.HookCtx{
		Domain: domain,
		Pos:    HookPosTaskStart,
		Item:   task,
	})
}

// EndTask notifies the tracers on the domain that a task has ended.
func EndTask(id string, domain Domain) {
	task := Task{
		ID:      id,
		EndTime: domain.CurrentTime(),
	}

	domain.InvokeHook(sim.HookCtx{
		Domain: domain,
		Pos:    HookPosTaskEnd,
		Item:   task,
	})
}

// A traceHook is a hook that forwards task events to a tracer.
type traceHook struct {
	t Tracer
}

// Func calls the tracer interface when the hook is triggered.
func (h *traceHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosTaskStart:
		h.t.StartTask(ctx.Item.(Task))
	case HookPosTaskStep:
		h.t.StepTask(ctx.Item.(Task))
	case HookPosTaskEnd:
		h.t.EndTask(ctx.Item.(Task))
	}
}
