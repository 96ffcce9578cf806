package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

type sampleMsg struct {
	MsgMeta
}

func (m *sampleMsg) Meta() *MsgMeta {
	return &m.MsgMeta
}

func newSampleMsg(src, dst Port) *sampleMsg {
	msg := &sampleMsg{}
	msg.Src = src
	msg.Dst = dst
	return msg
}

var _ = Describe("Port", func() {
	var (
		mockCtrl *gomock.Controller
		comp     *MockComponent
		conn     *MockConnection
		port     Port
		remote   Port
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		comp = NewMockComponent(mockCtrl)
		conn = NewMockConnection(mockCtrl)
		port = NewPort(comp, 2, 2, "Port")
		port.SetConnection(conn)
		remote = NewPort(nil, 2, 2, "Remote")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should send", func() {
		msg := newSampleMsg(port, remote)

		conn.EXPECT().NotifySend()

		err := port.Send(msg)

		Expect(err).To(BeNil())
		Expect(port.PeekOutgoing()).To(BeIdenticalTo(msg))
	})

	It("should only notify the connection when the buffer was empty", func() {
		msg1 := newSampleMsg(port, remote)
		msg2 := newSampleMsg(port, remote)

		conn.EXPECT().NotifySend()

		Expect(port.Send(msg1)).To(BeNil())
		Expect(port.Send(msg2)).To(BeNil())
	})

	It("should fail to send when the outgoing buffer is full", func() {
		conn.EXPECT().NotifySend()

		Expect(port.Send(newSampleMsg(port, remote))).To(BeNil())
		Expect(port.Send(newSampleMsg(port, remote))).To(BeNil())

		err := port.Send(newSampleMsg(port, remote))

		Expect(err).NotTo(BeNil())
	})

	It("should panic if the sender is not the msg src", func() {
		msg := newSampleMsg(remote, port)

		Expect(func() { port.Send(msg) }).To(Panic())
	})

	It("should deliver and notify the component", func() {
		msg := newSampleMsg(remote, port)

		comp.EXPECT().NotifyRecv(port)

		err := port.Deliver(msg)

		Expect(err).To(BeNil())
		Expect(port.PeekIncoming()).To(BeIdenticalTo(msg))
	})

	It("should fail to deliver when the incoming buffer is full", func() {
		comp.EXPECT().NotifyRecv(port)

		Expect(port.Deliver(newSampleMsg(remote, port))).To(BeNil())
		Expect(port.Deliver(newSampleMsg(remote, port))).To(BeNil())

		err := port.Deliver(newSampleMsg(remote, port))

		Expect(err).NotTo(BeNil())
	})

	It("should notify the connection when a full incoming buffer drains", func() {
		msg1 := newSampleMsg(remote, port)
		msg2 := newSampleMsg(remote, port)

		comp.EXPECT().NotifyRecv(port)
		port.Deliver(msg1)
		port.Deliver(msg2)

		conn.EXPECT().NotifyAvailable(port)

		retrieved := port.RetrieveIncoming()

		Expect(retrieved).To(BeIdenticalTo(msg1))
		Expect(port.PeekIncoming()).To(BeIdenticalTo(msg2))
	})

	It("should notify the component when a full outgoing buffer drains", func() {
		conn.EXPECT().NotifySend()
		port.Send(newSampleMsg(port, remote))
		port.Send(newSampleMsg(port, remote))

		comp.EXPECT().NotifyPortFree(port)

		Expect(port.RetrieveOutgoing()).NotTo(BeNil())
		Expect(port.CanSend()).To(BeTrue())
	})
})
