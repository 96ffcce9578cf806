package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slaclab/surfsim/dmaengine"
	"github.com/slaclab/surfsim/dmafifo"
	"github.com/slaclab/surfsim/mem"
	"github.com/slaclab/surfsim/monitoring"
	"github.com/slaclab/surfsim/sim"
	"github.com/slaclab/surfsim/sim/directconnection"
	"github.com/slaclab/surfsim/stream"
	"github.com/slaclab/surfsim/tracing"
)

var runFlags = struct {
	numFrames     int
	frameSize     int
	bufferWidth   uint
	maxFrameWidth uint
	writeLatency  int
	readLatency   int
	errorEvery    int
	dropOnError   bool
	traceCSV      string
	traceSQLite   string
	monitorPort   int
}{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Push a burst of frames through the DMA FIFO and report status",
	Run: func(_ *cobra.Command, _ []string) {
		runSimulation()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runFlags.numFrames,
		"frames", 16, "number of frames to push through the FIFO")
	runCmd.Flags().IntVar(&runFlags.frameSize,
		"frame-size", 1024, "payload bytes per frame")
	runCmd.Flags().UintVar(&runFlags.bufferWidth,
		"buffer-width", 16, "log2 of the circular buffer size in bytes")
	runCmd.Flags().UintVar(&runFlags.maxFrameWidth,
		"max-frame-width", 12, "log2 of the buffer slot size in bytes")
	runCmd.Flags().IntVar(&runFlags.writeLatency,
		"write-latency", 4, "write engine completion latency in cycles")
	runCmd.Flags().IntVar(&runFlags.readLatency,
		"read-latency", 4, "read engine completion latency in cycles")
	runCmd.Flags().IntVar(&runFlags.errorEvery,
		"error-every", 0, "force a write error on every Nth frame, 0 disables")
	runCmd.Flags().BoolVar(&runFlags.dropOnError,
		"drop-on-error", false, "drop frames whose write reported an error")
	runCmd.Flags().StringVar(&runFlags.traceCSV,
		"trace-csv", "", "write a task trace to the given CSV file")
	runCmd.Flags().StringVar(&runFlags.traceSQLite,
		"trace-sqlite", "", "write a task trace to the given SQLite database")
	runCmd.Flags().IntVar(&runFlags.monitorPort,
		"monitor", 0, "start the monitoring server on the given port")
}

func runSimulation() {
	engine := sim.NewSerialEngine()
	storage := mem.NewStorage(uint64(1) << runFlags.bufferWidth)

	sink := stream.MakeSinkBuilder().
		WithEngine(engine).
		Build("Sink")

	readEngine := dmaengine.MakeReadEngineBuilder().
		WithEngine(engine).
		WithStorage(storage).
		WithLatency(runFlags.readLatency).
		WithStreamTarget(sink.In()).
		Build("ReadEngine")

	writeEngine := dmaengine.MakeWriteEngineBuilder().
		WithEngine(engine).
		WithStorage(storage).
		WithLatency(runFlags.writeLatency).
		WithErrorInjector(errorInjector()).
		Build("WriteEngine")

	fifo := dmafifo.MakeBuilder().
		WithEngine(engine).
		WithBufferWidth(runFlags.bufferWidth).
		WithMaxFrameWidth(runFlags.maxFrameWidth).
		WithDropOnError(runFlags.dropOnError).
		WithWriteEngine(writeEngine.CtrlPort()).
		WithReadEngine(readEngine.CtrlPort()).
		Build("DmaFifo")

	source := stream.MakeSourceBuilder().
		WithEngine(engine).
		WithTarget(writeEngine.StreamPort()).
		Build("Source")

	conn := directconnection.MakeBuilder().
		WithEngine(engine).
		WithFreq(1 * sim.GHz).
		Build("Conn")
	conn.PlugIn(source.Out())
	conn.PlugIn(sink.In())
	conn.PlugIn(writeEngine.CtrlPort())
	conn.PlugIn(writeEngine.StreamPort())
	conn.PlugIn(readEngine.CtrlPort())
	conn.PlugIn(readEngine.StreamPort())
	conn.PlugIn(fifo.WriteCtrlPort())
	conn.PlugIn(fifo.ReadCtrlPort())

	setUpTracing(fifo)
	setUpMonitoring(engine, fifo, writeEngine, readEngine)

	for i := 0; i < runFlags.numFrames; i++ {
		payload := make([]byte, runFlags.frameSize)
		for j := range payload {
			payload[j] = byte(i + j)
		}

		source.Schedule(stream.FrameBuilder{}.
			WithPayload(payload).
			WithDest(uint8(i % 4)).
			WithStreamID(uint8(i)).
			Build())
	}

	err := engine.Run()
	if err != nil {
		panic(err)
	}

	printStatus(fifo, sink)
}

func errorInjector() func(*stream.Frame) bool {
	if runFlags.errorEvery <= 0 {
		return nil
	}

	count := 0
	return func(_ *stream.Frame) bool {
		count++
		return count%runFlags.errorEvery == 0
	}
}

func setUpTracing(fifo *dmafifo.Comp) {
	if runFlags.traceCSV != "" {
		tracer := tracing.NewCSVTracer(runFlags.traceCSV)
		tracing.CollectTrace(fifo, tracer)
	}

	if runFlags.traceSQLite != "" {
		tracer := tracing.NewSQLiteTracer(runFlags.traceSQLite)
		tracer.Init()
		tracing.CollectTrace(fifo, tracer)
	}
}

func setUpMonitoring(engine sim.Engine, comps ...sim.Component) {
	if runFlags.monitorPort == 0 {
		return
	}

	monitor := monitoring.NewMonitor().
		WithPortNumber(runFlags.monitorPort)
	monitor.RegisterEngine(engine)

	for _, c := range comps {
		monitor.RegisterComponent(c)
	}

	monitor.StartServer()
}

func printStatus(fifo *dmafifo.Comp, sink *stream.Sink) {
	frameCount := mustRegRead(fifo, dmafifo.RegFrameCount)
	errorCount := mustRegRead(fifo, dmafifo.RegErrorCount)
	peakCount := mustRegRead(fifo, dmafifo.RegPeakFrameCount)

	fmt.Printf("frames delivered:  %d\n", len(sink.Received()))
	fmt.Printf("frames in flight:  %d\n", frameCount)
	fmt.Printf("error count:       %d\n", errorCount)
	fmt.Printf("peak frame count:  %d\n", peakCount)
}

func mustRegRead(fifo *dmafifo.Comp, offset uint64) uint32 {
	v, err := fifo.RegRead(offset)
	if err != nil {
		panic(err)
	}

	return v
}
