package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"github.jpl.nasa.gov/keck/aopcu/chanio"
)

func newTestServer() StatusServer {
	reg := chanio.NewMemRegistry()
	reg.RegisterString("seq:stst").Set("INPOS")
	reg.RegisterString("seq:posRb").Set("TELESCOPE")
	reg.RegisterDouble("seq:m1PosRb", 0).Set(12.5)
	reg.RegisterString("collisions:stst").Set("MONITORING")
	return StatusServer{Reg: reg, SequencerPfx: "seq", GuardianPfx: "collisions"}
}

func TestSequencerSttstEndpoint(t *testing.T) {
	s := newTestServer()
	r := NewRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/sequencer/stst", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Str string `json:"str"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Str != "INPOS" {
		t.Fatalf("expected INPOS, got %q", body.Str)
	}
}

func TestAxisPosEndpoint(t *testing.T) {
	s := newTestServer()
	r := NewRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/axis/m1/pos", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		F64 float64 `json:"f64"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.F64 != 12.5 {
		t.Fatalf("expected 12.5, got %v", body.F64)
	}
}

func TestAxisPosEndpointUnknownAxis(t *testing.T) {
	s := newTestServer()
	r := NewRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/axis/m9/pos", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown axis, got %d", w.Code)
	}
}

func TestCollisionsSttstEndpoint(t *testing.T) {
	s := newTestServer()
	r := NewRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/collisions/stst", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body struct {
		Str string `json:"str"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Str != "MONITORING" {
		t.Fatalf("expected MONITORING, got %q", body.Str)
	}
}

func TestEndpointsListed(t *testing.T) {
	s := newTestServer()
	r := NewRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/endpoints", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var eps []string
	if err := json.NewDecoder(w.Body).Decode(&eps); err != nil {
		t.Fatal(err)
	}
	if len(eps) != 4 {
		t.Fatalf("expected 4 registered endpoints, got %d: %v", len(eps), eps)
	}
}

func TestSequencerRequestCommand(t *testing.T) {
	reg := chanio.NewMemRegistry()
	cmd := CommandServer{Reg: reg, SequencerPfx: "seq", GuardianPfx: "collisions"}
	r := NewCommandRouter(cmd)

	body := strings.NewReader(`{"str":"home"}`)
	req := httptest.NewRequest(http.MethodPost, "/sequencer/request", body)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := reg.RegisterString("seq:request").Get(); got != "home" {
		t.Fatalf("expected the request cell to hold %q, got %q", "home", got)
	}
}

func TestAxisPosCommandUnknownAxis(t *testing.T) {
	reg := chanio.NewMemRegistry()
	cmd := CommandServer{Reg: reg, SequencerPfx: "seq", GuardianPfx: "collisions"}
	r := NewCommandRouter(cmd)

	body := strings.NewReader(`{"f64":1.5}`)
	req := httptest.NewRequest(http.MethodPost, "/axis/m9/pos", body)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown axis, got %d", w.Code)
	}
}

func TestCombinedServerExposesBothSurfaces(t *testing.T) {
	reg := chanio.NewMemRegistry()
	reg.RegisterString("seq:stst").Set("INPOS")
	status := StatusServer{Reg: reg, SequencerPfx: "seq", GuardianPfx: "collisions"}
	cmd := CommandServer{Reg: reg, SequencerPfx: "seq", GuardianPfx: "collisions"}
	r := NewServer(status, cmd)

	getReq := httptest.NewRequest(http.MethodGet, "/sequencer/stst", nil)
	getW := httptest.NewRecorder()
	r.ServeHTTP(getW, getReq)
	if getW.Code != http.StatusOK {
		t.Fatalf("expected GET /sequencer/stst to return 200, got %d", getW.Code)
	}

	postReq := httptest.NewRequest(http.MethodPost, "/sequencer/request", strings.NewReader(`{"str":"stop"}`))
	postW := httptest.NewRecorder()
	r.ServeHTTP(postW, postReq)
	if postW.Code != http.StatusOK {
		t.Fatalf("expected POST /sequencer/request to return 200, got %d", postW.Code)
	}
	if got := reg.RegisterString("seq:request").Get(); got != "stop" {
		t.Fatalf("expected the request cell to hold %q, got %q", "stop", got)
	}
}

func TestPerRemoteLimiterRejectsBurst(t *testing.T) {
	limiter := NewPerRemoteLimiter(rate.Limit(1), 1)
	s := newTestServer()
	s.Limiter = limiter
	r := NewRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/sequencer/stst", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, req)
	if w1.Code != http.StatusOK {
		t.Fatalf("expected the first request to pass, got %d", w1.Code)
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected the second immediate request to be throttled, got %d", w2.Code)
	}
}
