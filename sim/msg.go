package sim

// A Msg is a piece of information transferred between components.
type Msg interface {
	Meta() *MsgMeta
}

// MsgMeta contains the meta data that is attached to every message.
type MsgMeta struct {
	ID           string
	Src, Dst     Port
	TrafficBytes int
}

// Rsp is a special message that indicates the completion of a request.
type Rsp interface {
	Msg

	// GetRspTo returns the ID of the request that the response is responding
	// to.
	GetRspTo() string
}

// GeneralRsp is a general response message that can indicate the completion
// of any request.
type GeneralRsp struct {
	MsgMeta

	OriginalReq Msg
}

// Meta returns the meta data of the message.
func (r *GeneralRsp) Meta() *MsgMeta {
	return &r.MsgMeta
}

// GetRspTo returns the ID of the original request.
func (r *GeneralRsp) GetRspTo() string {
	return r.OriginalReq.Meta().ID
}

// GeneralRspBuilder can build general response messages.
type GeneralRspBuilder struct {
	src, dst    Port
	originalReq Msg
}

// WithSrc sets the source of the response to build.
func (c GeneralRspBuilder) WithSrc(src Port) GeneralRspBuilder {
	c.src = src
	return c
}

// WithDst sets the destination of the response to build.
func (c GeneralRspBuilder) WithDst(dst Port) GeneralRspBuilder {
	c.dst = dst
	return c
}

// WithOriginalReq sets the request that the response to build responds to.
func (c GeneralRspBuilder) WithOriginalReq(req Msg) GeneralRspBuilder {
	c.originalReq = req
	return c
}

// Build creates a new GeneralRsp.
func (c GeneralRspBuilder) Build() *GeneralRsp {
	rsp := &GeneralRsp{
		MsgMeta: MsgMeta{
			ID:  GetIDGenerator().Generate(),
			Src: c.src,
			Dst: c.dst,
		},
		OriginalReq: c.originalReq,
	}

	return rsp
}
