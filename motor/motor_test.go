package motor

import (
	"errors"
	"testing"

	"github.jpl.nasa.gov/keck/aopcu/chanio"
)

func TestAxisEnableInvertedChannel(t *testing.T) {
	reg := chanio.NewMemRegistry()
	a := NewAxis(reg, "m1", "k1:ao:pcu:ln")

	if en, err := a.IsEnabled(); err != nil || en {
		t.Fatalf("expected new axis disabled by default, got (%v, %v)", en, err)
	}
	if err := a.Enable(); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	// The in-memory registry has no device behind it; echo the enable
	// channel onto its readback the way the motor controller would.
	a.Chans.EnableRb.Set(a.Chans.Enable.Get())
	if en, err := a.IsEnabled(); err != nil || !en {
		t.Fatalf("expected enabled after Enable, got (%v, %v)", en, err)
	}
	if err := a.Disable(); err != nil {
		t.Fatalf("Disable: %v", err)
	}
	a.Chans.EnableRb.Set(a.Chans.Enable.Get())
	if en, _ := a.IsEnabled(); en {
		t.Fatal("expected disabled after Disable")
	}
}

func TestAxisSetPositionRequiresEnabled(t *testing.T) {
	reg := chanio.NewMemRegistry()
	a := NewAxis(reg, "m1", "k1:ao:pcu:ln")

	if err := a.SetPosition(10); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
	if err := a.Enable(); err != nil {
		t.Fatal(err)
	}
	// Echo the enable channel onto its readback, as the device would.
	a.Chans.EnableRb.Set(a.Chans.Enable.Get())
	if err := a.SetPosition(10); err != nil {
		t.Fatalf("SetPosition after enable: %v", err)
	}
	if v := a.Chans.PosVal.Get(); v != 10 {
		t.Fatalf("expected posval=10, got %v", v)
	}
	if v := a.Chans.Go.Get(); v != 1 {
		t.Fatal("expected go to be latched")
	}
}

func TestAxisDisconnected(t *testing.T) {
	reg := chanio.NewMemRegistry()
	a := NewAxis(reg, "m1", "k1:ao:pcu:ln")
	a.Chans.PosValRb.(*chanio.MemDoubleChannel).Disconnect()

	if _, err := a.ReadPosition(); !errors.Is(err, ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected, got %v", err)
	}
}

func TestAxisStopNeverChecksConnectivity(t *testing.T) {
	reg := chanio.NewMemRegistry()
	a := NewAxis(reg, "m1", "k1:ao:pcu:ln")
	for _, ch := range a.Chans.all() {
		ch.(*chanio.MemDoubleChannel).Disconnect()
	}
	// Stop must not panic or error even though every channel is down.
	a.Stop()
	if v := a.Chans.Halt.Get(); v != 1 {
		t.Fatal("expected halt to be latched despite disconnection")
	}
}
