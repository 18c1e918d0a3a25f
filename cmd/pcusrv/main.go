// Command pcusrv runs the precision calibration unit core: the
// sequencer and collision guardian state machines, each on its own tick
// loop at the same period over the configured motor set, with an
// optional HTTP status mirror and command surface.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.jpl.nasa.gov/keck/aopcu/catalog"
	"github.jpl.nasa.gov/keck/aopcu/chanio"
	"github.jpl.nasa.gov/keck/aopcu/guardian"
	"github.jpl.nasa.gov/keck/aopcu/httpapi"
	"github.jpl.nasa.gov/keck/aopcu/logging"
	"github.jpl.nasa.gov/keck/aopcu/motor"
	"github.jpl.nasa.gov/keck/aopcu/position"
	"github.jpl.nasa.gov/keck/aopcu/sequencer"
	"github.jpl.nasa.gov/keck/aopcu/tickrun"
)

func main() {
	var (
		prefix    = flag.String("prefix", "k1:ao:pcu", "channel prefix the sequencer and guardian publish under")
		tickrate  = flag.Duration("tickrate", 200*time.Millisecond, "tick period for both state machines")
		debug     = flag.Bool("debug", false, "enable debug logging")
		configDir = flag.String("config-dir", ".", "directory holding configurations.yaml and motors.yaml")
		httpAddr  = flag.String("http-addr", "", "if set, serve the HTTP status mirror and command surface on this address")
	)
	flag.Parse()

	seqLog := logging.New("sequencer", *debug)
	guardLog := logging.New("guardian", *debug)

	// Configuration is loaded once here only to give the guardian and
	// the sequencer's constructor something to start with; it is not a
	// precondition for booting the process. The sequencer reloads and
	// revalidates it on every INIT entry (see stepInit), so a bad YAML
	// file at boot surfaces as the sequencer starting in FAULT rather
	// than killing the daemon, and an operator can fix it and reinit
	// without a restart.
	loader := catalog.DirLoader(*configDir)
	store, err := loader()
	if err != nil {
		log.Printf("pcusrv: initial configuration load failed, sequencer will start in FAULT: %v", err)
		store = &catalog.Store{}
	}

	reg := chanio.NewMemRegistry()
	motors := buildMotors(reg, *prefix)

	seqChans := sequencer.NewChannels(reg, *prefix)
	guardChans := guardian.Channels{
		Stst:    reg.RegisterString("collisions:stst"),
		Request: chanio.NewLatchedString(reg.RegisterString("collisions:request")),
	}
	guardianPort := sequencer.GuardianPort{Request: reg.RegisterString("collisions:request")}

	g := guardian.New(motors, store, guardChans, guardLog)
	s := sequencer.New(motors, store, seqChans, guardianPort, seqLog)
	s.Loader = loader

	group := tickrun.NewGroup(*tickrate)
	group.Add("sequencer", s)
	group.Add("guardian", g)

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("pcusrv: shutting down")
		cancel()
	}()

	if *httpAddr != "" {
		go serveHTTP(*httpAddr, reg, *prefix)
	}

	group.Run(ctx)
}

// buildMotors constructs one motor.Axis per physical axis, bound to
// the channel quartet under prefix:ln:<axis> (spec §6.2's device
// prefix convention). The four axes are fixed by the hardware, not by
// configuration, so this never depends on a loaded catalog.Store.
func buildMotors(reg chanio.Registry, prefix string) motor.Set {
	set := make(motor.Set, len(position.Axes))
	for _, a := range position.Axes {
		set[string(a)] = motor.NewAxis(reg, string(a), prefix+":ln")
	}
	return set
}

func serveHTTP(addr string, reg chanio.Registry, prefix string) {
	limiter := httpapi.NewPerRemoteLimiter(5, 10)
	status := httpapi.StatusServer{
		Reg:          reg,
		SequencerPfx: prefix,
		GuardianPfx:  "collisions",
		Limiter:      limiter,
	}
	commands := httpapi.CommandServer{
		Reg:          reg,
		SequencerPfx: prefix,
		GuardianPfx:  "collisions",
		Limiter:      limiter,
	}
	r := httpapi.NewServer(status, commands)
	log.Printf("pcusrv: status and command surface listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Println("pcusrv: http server exited:", err)
	}
}
