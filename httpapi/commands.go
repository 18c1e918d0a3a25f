package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"github.jpl.nasa.gov/keck/aopcu/chanio"
	"github.jpl.nasa.gov/keck/aopcu/position"
)

// CommandServer is the write surface over the same channel fabric
// StatusServer mirrors read-only: POST handlers that set the
// destructive-read request/position/offset cells the sequencer and
// guardian drain once per tick. It is the HTTP analogue of writing
// the channel fabric directly, grounded on generichttp/motion's
// SetPos/Home POST handlers.
type CommandServer struct {
	Reg          chanio.Registry
	SequencerPfx string
	GuardianPfx  string
	Limiter      *PerRemoteLimiter
}

func (s CommandServer) RouteTable() RouteTable {
	return RouteTable{
		{Method: http.MethodPost, Path: "/sequencer/request"}: s.sequencerRequest(),
		{Method: http.MethodPost, Path: "/sequencer/pos"}:     s.sequencerPos(),
		{Method: http.MethodPost, Path: "/axis/{axis}/pos"}:   s.axisPos(),
		{Method: http.MethodPost, Path: "/axis/{axis}/offset"}: s.axisOffset(),
		{Method: http.MethodPost, Path: "/collisions/request"}: s.collisionsRequest(),
	}
}

func decodeStr(r *http.Request) (string, error) {
	var body strT
	err := json.NewDecoder(r.Body).Decode(&body)
	defer r.Body.Close()
	return body.Str, err
}

func decodeFloat(r *http.Request) (float64, error) {
	var body floatT
	err := json.NewDecoder(r.Body).Decode(&body)
	defer r.Body.Close()
	return body.F64, err
}

func (s CommandServer) sequencerRequest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := decodeStr(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.Reg.RegisterString(s.SequencerPfx + ":request").Set(v)
		w.WriteHeader(http.StatusOK)
	}
}

func (s CommandServer) sequencerPos() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := decodeStr(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.Reg.RegisterString(s.SequencerPfx + ":pos").Set(v)
		w.WriteHeader(http.StatusOK)
	}
}

func (s CommandServer) axisPos() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		axis := position.Axis(chi.URLParam(r, "axis"))
		if !validAxis(axis) {
			http.Error(w, "unknown axis", http.StatusNotFound)
			return
		}
		v, err := decodeFloat(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.Reg.RegisterDouble(s.SequencerPfx+":"+string(axis)+"Pos", 0).Set(v)
		w.WriteHeader(http.StatusOK)
	}
}

func (s CommandServer) axisOffset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		axis := position.Axis(chi.URLParam(r, "axis"))
		if !validAxis(axis) {
			http.Error(w, "unknown axis", http.StatusNotFound)
			return
		}
		v, err := decodeFloat(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.Reg.RegisterDouble(s.SequencerPfx+":"+string(axis)+"Offset", 0).Set(v)
		w.WriteHeader(http.StatusOK)
	}
}

func (s CommandServer) collisionsRequest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := decodeStr(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.Reg.RegisterString(s.GuardianPfx + ":request").Set(v)
		w.WriteHeader(http.StatusOK)
	}
}

// NewCommandRouter builds a chi.Router exposing s's command surface,
// throttled per remote address when s.Limiter is set.
func NewCommandRouter(s CommandServer) chi.Router {
	r := chi.NewRouter()
	if s.Limiter != nil {
		r.Use(s.Limiter.Check)
	}
	s.RouteTable().Bind(r)
	return r
}
