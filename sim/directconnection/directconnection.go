// Package directconnection provides a latency-free connection that delivers
// messages between ports in the cycle after they are sent.
package directconnection

import (
	"github.com/slaclab/surfsim/sim"
)

// Comp is a connection that delivers messages to their destination ports
// without latency.
type Comp struct {
	*sim.TickingComponent

	ports []sim.Port
}

// PlugIn marks the port as connected to this connection.
func (c *Comp) PlugIn(port sim.Port) {
	c.Lock()
	defer c.Unlock()

	c.ports = append(c.ports, port)
	port.SetConnection(c)
}

// NotifyAvailable is called by a port to notify that the port can receive
// messages again.
func (c *Comp) NotifyAvailable(p sim.Port) {
	for _, port := range c.ports {
		if port == p {
			continue
		}

		port.NotifyAvailable()
	}

	c.TickNow()
}

// NotifySend is called by a port to notify that there are messages to
// deliver.
func (c *Comp) NotifySend() {
	c.TickNow()
}

// Tick moves pending messages from the outgoing buffers of the plugged ports
// to the incoming buffers of their destinations.
func (c *Comp) Tick() bool {
	madeProgress := false

	for _, port := range c.ports {
		madeProgress = c.forwardMany(port) || madeProgress
	}

	return madeProgress
}

func (c *Comp) forwardMany(port sim.Port) bool {
	madeProgress := false

	for {
		head := port.PeekOutgoing()
		if head == nil {
			break
		}

		err := head.Meta().Dst.Deliver(head)
		if err != nil {
			break
		}

		madeProgress = true
		port.RetrieveOutgoing()
	}

	return madeProgress
}
