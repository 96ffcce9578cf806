package tracing

import (
	"fmt"
	"os"

	"github.com/tebeka/atexit"
)

// CSVTracer stores completed tasks in a CSV file.
type CSVTracer struct {
	path string
	file *os.File

	inflight  map[string]Task
	completed []Task

	bufferSize int
}

// NewCSVTracer creates a tracer that writes to the given path. An existing
// file is overwritten.
func NewCSVTracer(path string) *CSVTracer {
	t := &CSVTracer{
		path:       path,
		inflight:   make(map[string]Task),
		bufferSize: 1000,
	}

	file, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	t.file = file

	fmt.Fprintf(file, "ID,ParentID,Kind,What,Where,Start,End\n")

	atexit.Register(func() { t.Close() })

	return t
}

// StartTask records the starting time of the task.
func (t *CSVTracer) StartTask(task Task) {
	t.inflight[task.ID] = task
}

// StepTask does nothing.
func (t *CSVTracer) StepTask(_ Task) {
	// Milestones are not stored in the CSV output.
}

// EndTask completes a task and buffers it for writing.
func (t *CSVTracer) EndTask(task Task) {
	started, ok := t.inflight[task.ID]
	if !ok {
		return
	}

	delete(t.inflight, task.ID)
	started.EndTime = task.EndTime
	t.completed = append(t.completed, started)

	if len(t.completed) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes all the buffered tasks to the file.
func (t *CSVTracer) Flush() {
	for _, task := range t.completed {
		fmt.Fprintf(t.file, "%s,%s,%s,%s,%s,%.10f,%.10f\n",
			task.ID, task.ParentID,
			task.Kind, task.What, task.Where,
			task.StartTime, task.EndTime)
	}

	t.completed = nil
}

// Close flushes the buffered tasks and closes the file.
func (t *CSVTracer) Close() {
	t.Flush()

	err := t.file.Close()
	if err != nil {
		panic(err)
	}
}
