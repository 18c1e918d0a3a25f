package sequencer

import (
	"github.jpl.nasa.gov/keck/aopcu/chanio"
	"github.jpl.nasa.gov/keck/aopcu/position"
)

// StringWriter is the minimal surface needed to publish a readback
// string (spec §6.1's R channels).
type StringWriter interface {
	Set(string)
}

// DoubleWriter is the minimal surface needed to publish a readback
// double.
type DoubleWriter interface {
	Set(float64)
}

// Channels is the sequencer's published external surface (spec §6.1),
// built once from the channel registry under the conventional prefix
// (default `k1:ao:pcu`).
type Channels struct {
	Stst    StringWriter          // <P>:stst (R)
	PosReq  chanio.LatchedString  // <P>:pos (W, destructive)
	PosRb   StringWriter          // <P>:posRb (R)
	Request chanio.LatchedString  // <P>:request (W, destructive)
	AxisPos map[position.Axis]chanio.LatchedDouble    // <P>:<axis>Pos (W, sentinel)
	AxisOffset map[position.Axis]chanio.LatchedDouble // <P>:<axis>Offset (W, sentinel)
	AxisPosRb map[position.Axis]DoubleWriter           // <P>:<axis>PosRb (R)
	AxisOffsetRb map[position.Axis]DoubleWriter        // <P>:<axis>OffsetRb (R)
}

// NewChannels registers the full sequencer channel surface under
// prefix in reg.
func NewChannels(reg chanio.Registry, prefix string) Channels {
	c := Channels{
		Stst:         reg.RegisterString(prefix + ":stst"),
		PosReq:       chanio.NewLatchedString(reg.RegisterString(prefix + ":pos")),
		PosRb:        reg.RegisterString(prefix + ":posRb"),
		Request:      chanio.NewLatchedString(reg.RegisterString(prefix + ":request")),
		AxisPos:      make(map[position.Axis]chanio.LatchedDouble, 4),
		AxisOffset:   make(map[position.Axis]chanio.LatchedDouble, 4),
		AxisPosRb:    make(map[position.Axis]DoubleWriter, 4),
		AxisOffsetRb: make(map[position.Axis]DoubleWriter, 4),
	}
	for _, a := range position.Axes {
		c.AxisPos[a] = chanio.NewLatchedDouble(reg.RegisterDouble(prefix+":"+string(a)+"Pos", chanio.ResetVal))
		c.AxisOffset[a] = chanio.NewLatchedDouble(reg.RegisterDouble(prefix+":"+string(a)+"Offset", chanio.ResetVal))
		c.AxisPosRb[a] = reg.RegisterDouble(prefix+":"+string(a)+"PosRb", 0)
		c.AxisOffsetRb[a] = reg.RegisterDouble(prefix+":"+string(a)+"OffsetRb", 0)
	}
	return c
}

// GuardianPort is the sequencer's write-only handle to the guardian's
// command channel (spec §4.5: "the sequencer toggles request=disable
// before homing and request=enable after"). A cleaner design would
// route this through a dedicated coordination channel (spec §9); this
// implementation follows the specified behavior of writing the
// guardian's own request channel directly. The guardian's command
// vocabulary has no bare "enable" — re-arming after DISABLED is
// "reinit", which re-enters INIT and falls through to MONITORING on
// the next tick if the current position is still valid.
type GuardianPort struct {
	Request StringWriter
}

// DisableGuardian asks the guardian to stop monitoring for the
// duration of a homing sequence.
func (p GuardianPort) DisableGuardian() {
	p.Request.Set("disable")
}

// EnableGuardian re-arms guardian monitoring after homing completes.
func (p GuardianPort) EnableGuardian() {
	p.Request.Set("reinit")
}
