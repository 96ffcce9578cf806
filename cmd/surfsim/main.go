// Command surfsim runs the cycle-level model of the stream-to-memory DMA
// buffering FIFO.
package main

func main() {
	Execute()
}
