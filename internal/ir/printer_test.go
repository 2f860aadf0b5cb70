package ir

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

func TestDumpPackageGolden(t *testing.T) {
	b := NewBuilder("mac")
	x := b.Param("x", Bits(16))
	y := b.Param("y", Bits(16))
	acc := b.Param("acc", Bits(32))
	prod := b.Binary(OpSMul, x, y)
	wide := b.Extend(prod, 32, true)
	f := b.Finish(b.Binary(OpAdd, wide, acc))

	pb := NewBuilder("route_body")
	v := pb.Param("in", Bits(8))
	hi := pb.Binary(OpUGt, v, pb.Literal(10, Bits(8)))
	body := pb.Finish(NoNode)

	pkg := &Package{
		Name:  "demo",
		Funcs: []*Fn{f},
		Procs: []*Proc{{
			Name: "route",
			Channels: []Channel{
				{Name: "in", Dir: DirInput, Kind: KindFIFO, Type: Bits(8)},
				{Name: "big", Dir: DirOutput, Kind: KindFIFO, Type: Bits(8)},
			},
			Body: body,
			Ops: []ProcOp{
				{Kind: ProcRecv, Channel: "in", Param: v},
				{Kind: ProcSend, Channel: "big", Value: v, Pred: hi},
			},
		}},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "dump_package", []byte(DumpPackage(pkg)))
}
