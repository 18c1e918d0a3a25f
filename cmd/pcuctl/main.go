// Command pcuctl is the operator CLI for a running pcusrv: it issues
// commands against the HTTP command surface and can watch the
// sequencer's metastate until it settles.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/theckman/yacspin"
)

func main() {
	addr := flag.String("addr", "http://localhost:8080", "pcusrv HTTP address")
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	client := &client{addr: *addr}

	var err error
	switch args[0] {
	case "pos":
		err = requirePos(args, client.goTo)
	case "offset":
		err = requireAxisValue(args, client.offset)
	case "axis-pos":
		err = requireAxisValue(args, client.axisPos)
	case "home":
		err = client.home()
	case "stop":
		err = client.request("stop")
	case "reinit":
		err = client.request("reinit")
	case "enable":
		err = client.request("enable")
	case "disable":
		err = client.request("disable")
	case "watch":
		err = client.watch()
	case "status":
		err = client.printStatus()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "pcuctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: pcuctl [-addr url] <command> [args]

commands:
  pos <name>             go to a named configuration
  axis-pos <axis> <mm>   command an absolute axis position
  offset <axis> <mm>     command a relative axis offset
  home                   home the stage, watching until it settles
  stop                   abort the current move
  reinit                 clear a fault and re-sample position
  enable                 enable all motors
  disable                disable all motors
  watch                  print the sequencer metastate until it settles
  status                 print the current sequencer and guardian state`)
}

func requirePos(args []string, f func(string) error) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: pcuctl pos <name>")
	}
	return f(args[1])
}

func requireAxisValue(args []string, f func(axis string, mm float64) error) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: pcuctl %s <axis> <mm>", args[0])
	}
	var mm float64
	if _, err := fmt.Sscanf(args[2], "%g", &mm); err != nil {
		return fmt.Errorf("invalid value %q: %w", args[2], err)
	}
	return f(args[1], mm)
}

// client is a thin wrapper over the pcusrv command/status HTTP surface.
type client struct {
	addr string
	http http.Client
}

func (c *client) postStr(path, value string) error {
	body, _ := json.Marshal(map[string]string{"str": value})
	return c.post(path, body)
}

func (c *client) postFloat(path string, value float64) error {
	body, _ := json.Marshal(map[string]float64{"f64": value})
	return c.post(path, body)
}

func (c *client) post(path string, body []byte) error {
	resp, err := c.http.Post(c.addr+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %s", path, resp.Status)
	}
	return nil
}

func (c *client) getStr(path string) (string, error) {
	resp, err := c.http.Get(c.addr + path)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var body struct {
		Str string `json:"str"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.Str, nil
}

func (c *client) request(cmd string) error {
	return c.postStr("/sequencer/request", cmd)
}

func (c *client) goTo(name string) error {
	if err := c.postStr("/sequencer/pos", name); err != nil {
		return err
	}
	return c.watch()
}

func (c *client) axisPos(axis string, mm float64) error {
	return c.postFloat("/axis/"+axis+"/pos", mm)
}

func (c *client) offset(axis string, mm float64) error {
	return c.postFloat("/axis/"+axis+"/offset", mm)
}

func (c *client) home() error {
	if err := c.request("home"); err != nil {
		return err
	}
	return c.watch()
}

func (c *client) printStatus() error {
	stst, err := c.getStr("/sequencer/stst")
	if err != nil {
		return err
	}
	pos, err := c.getStr("/sequencer/pos")
	if err != nil {
		return err
	}
	collisions, err := c.getStr("/collisions/stst")
	if err != nil {
		return err
	}
	fmt.Printf("sequencer: %s (%s)\nguardian:  %s\n", stst, pos, collisions)
	return nil
}

// watch polls the sequencer metastate and spins until it reaches a
// settled (non-MOVING, non-INIT) state or a fault.
func (c *client) watch() error {
	cfg := yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[9],
		Suffix:          " waiting for the sequencer to settle",
		SuffixAutoColon: true,
		Message:         "MOVING",
		StopCharacter:   "done",
		StopColors:      []string{"fgGreen"},
	}
	spinner, err := yacspin.New(cfg)
	if err != nil {
		return err
	}
	if err := spinner.Start(); err != nil {
		return err
	}

	for {
		stst, err := c.getStr("/sequencer/stst")
		if err != nil {
			spinner.StopFailMessage(err.Error())
			_ = spinner.StopFail()
			return err
		}
		spinner.Message(stst)
		if stst != "MOVING" && stst != "INIT" {
			if stst == "FAULT" {
				spinner.StopFailMessage("entered FAULT")
				return spinner.StopFail()
			}
			spinner.StopMessage(stst)
			return spinner.Stop()
		}
		time.Sleep(250 * time.Millisecond)
	}
}
