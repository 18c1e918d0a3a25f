// Package httpapi is an HTTP surface over the same channel fabric the
// sequencer and collision guardian publish into and drain from.
// StatusServer is a read-only status mirror; CommandServer writes the
// same destructive-read request/position/offset cells an operator
// would otherwise set directly on the channel fabric, so both share
// the one-write-per-call semantics those cells already enforce.
package httpapi

import (
	"encoding/json"
	"go/types"
	"net/http"
	"sort"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.jpl.nasa.gov/keck/aopcu/chanio"
	"github.jpl.nasa.gov/keck/aopcu/position"
)

// MethodPath names one route: an HTTP method and a chi path pattern.
type MethodPath struct {
	Method, Path string
}

// RouteTable maps routes to handlers, backend-agnostic the way the
// corpus's RouteTable2 is, rather than tied to one router's own
// pattern type.
type RouteTable map[MethodPath]http.HandlerFunc

// Bind registers every route in rt on r, plus a GET /endpoints route
// listing them if one is not already present.
func (rt RouteTable) Bind(r chi.Router) {
	for mp, h := range rt {
		r.MethodFunc(mp.Method, mp.Path, h)
	}
	listRoute := MethodPath{Method: http.MethodGet, Path: "/endpoints"}
	if _, exists := rt[listRoute]; !exists {
		r.Get("/endpoints", rt.endpointsHandler())
	}
}

// Endpoints returns every route in rt as "METHOD /path", sorted.
func (rt RouteTable) Endpoints() []string {
	out := make([]string, 0, len(rt))
	for mp := range rt {
		out = append(out, mp.Method+" "+mp.Path)
	}
	sort.Strings(out)
	return out
}

func (rt RouteTable) endpointsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(rt.Endpoints()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// HumanPayload is the single-field JSON envelope every read-only
// handler replies with, tagged by the basic kind it actually carries.
type HumanPayload struct {
	String string
	Float  float64
	T      types.BasicKind
}

type strT struct {
	Str string `json:"str"`
}

type floatT struct {
	F64 float64 `json:"f64"`
}

// EncodeAndRespond writes hp to w as a one-field JSON object.
func (hp HumanPayload) EncodeAndRespond(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	var err error
	switch hp.T {
	case types.String:
		err = json.NewEncoder(w).Encode(strT{Str: hp.String})
	case types.Float64:
		err = json.NewEncoder(w).Encode(floatT{F64: hp.Float})
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// StatusServer is the read-only status mirror's handler set. It holds
// no state of its own beyond the registry both state machines already
// publish into and the channel-name prefixes they publish under.
type StatusServer struct {
	Reg          chanio.Registry
	SequencerPfx string
	GuardianPfx  string
	Limiter      *PerRemoteLimiter
}

// RouteTable builds the fixed set of read-only routes this server
// exposes (spec's HTTP status mirror: sequencer/collisions stst, the
// latched-configuration readback, and per-axis position readback).
func (s StatusServer) RouteTable() RouteTable {
	return RouteTable{
		{Method: http.MethodGet, Path: "/sequencer/stst"}:   s.sequencerStst(),
		{Method: http.MethodGet, Path: "/sequencer/pos"}:    s.sequencerPos(),
		{Method: http.MethodGet, Path: "/axis/{axis}/pos"}:  s.axisPos(),
		{Method: http.MethodGet, Path: "/collisions/stst"}:  s.collisionsStst(),
	}
}

func (s StatusServer) sequencerStst() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := s.Reg.RegisterString(s.SequencerPfx + ":stst").Get()
		HumanPayload{T: types.String, String: v}.EncodeAndRespond(w, r)
	}
}

func (s StatusServer) sequencerPos() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := s.Reg.RegisterString(s.SequencerPfx + ":posRb").Get()
		HumanPayload{T: types.String, String: v}.EncodeAndRespond(w, r)
	}
}

func (s StatusServer) axisPos() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		axis := position.Axis(chi.URLParam(r, "axis"))
		if !validAxis(axis) {
			http.Error(w, "unknown axis", http.StatusNotFound)
			return
		}
		v := s.Reg.RegisterDouble(s.SequencerPfx+":"+string(axis)+"PosRb", 0).Get()
		HumanPayload{T: types.Float64, Float: v}.EncodeAndRespond(w, r)
	}
}

func (s StatusServer) collisionsStst() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := s.Reg.RegisterString(s.GuardianPfx + ":stst").Get()
		HumanPayload{T: types.String, String: v}.EncodeAndRespond(w, r)
	}
}

func validAxis(a position.Axis) bool {
	for _, x := range position.Axes {
		if x == a {
			return true
		}
	}
	return false
}

// NewRouter builds a chi.Router exposing s's status mirror, throttled
// per remote address when s.Limiter is set.
func NewRouter(s StatusServer) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	if s.Limiter != nil {
		r.Use(s.Limiter.Check)
	}
	s.RouteTable().Bind(r)
	return r
}

// NewServer builds a single chi.Router exposing both the status mirror
// and the command surface, so a caller running pcusrv doesn't have to
// listen on two addresses. The two route tables are merged before
// binding so /endpoints is only registered once.
func NewServer(status StatusServer, commands CommandServer) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	if limiter := status.Limiter; limiter != nil {
		r.Use(limiter.Check)
	} else if limiter := commands.Limiter; limiter != nil {
		r.Use(limiter.Check)
	}
	combined := RouteTable{}
	for mp, h := range status.RouteTable() {
		combined[mp] = h
	}
	for mp, h := range commands.RouteTable() {
		combined[mp] = h
	}
	combined.Bind(r)
	return r
}
