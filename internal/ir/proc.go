package ir

// ChannelDir is the channel direction relative to the process.
type ChannelDir uint8

const (
	DirInput ChannelDir = iota
	DirOutput
)

func (d ChannelDir) String() string {
	if d == DirOutput {
		return "out"
	}
	return "in"
}

// ChannelKind distinguishes wire-like direct ports from queued FIFO ports.
type ChannelKind uint8

const (
	// KindDirect is a single-value port sampled each activation.
	KindDirect ChannelKind = iota
	// KindFIFO is a queued ready/valid port.
	KindFIFO
)

func (k ChannelKind) String() string {
	if k == KindFIFO {
		return "fifo"
	}
	return "direct"
}

// Channel is one process endpoint.
type Channel struct {
	Name string
	Dir  ChannelDir
	Kind ChannelKind
	Type *Type
}

// ProcOpKind enumerates scheduled operations of one activation.
type ProcOpKind uint8

const (
	// ProcDirect samples a direct-in channel into a body parameter.
	ProcDirect ProcOpKind = iota
	// ProcRecv dequeues from a FIFO input into a body parameter.
	ProcRecv
	// ProcSend enqueues a body value to a FIFO output.
	ProcSend
)

func (k ProcOpKind) String() string {
	switch k {
	case ProcRecv:
		return "recv"
	case ProcSend:
		return "send"
	}
	return "direct"
}

// ProcOp schedules one channel operation. Ops execute in list order, which
// is the source evaluation order of the operations that produced them.
type ProcOp struct {
	Kind    ProcOpKind
	Channel string
	// Param is the body parameter bound by a direct sample or receive.
	Param NodeID
	// Value is the body node sent on the channel.
	Value NodeID
	// Pred guards the operation; NoNode means always active.
	Pred NodeID
}

// Proc is one hardware block: a fixed channel set and a body describing a
// single activation. Build-once; the inliner replaces Body wholesale rather
// than mutating it.
type Proc struct {
	Name     string
	Channels []Channel
	Body     *Fn
	Ops      []ProcOp
}

// Channel returns the declared channel named name.
func (p *Proc) Channel(name string) *Channel {
	for i := range p.Channels {
		if p.Channels[i].Name == name {
			return &p.Channels[i]
		}
	}
	return nil
}
