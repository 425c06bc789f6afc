package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/stellarflux/transit-simulator/core"
	"github.com/stellarflux/transit-simulator/internal/logging"
	"github.com/stellarflux/transit-simulator/model"
	"github.com/stellarflux/transit-simulator/store"
	"github.com/stellarflux/transit-simulator/timegrid"
)

type systemRequest struct {
	Params        map[string]float64 `json:"params"`
	LimbDarkening []float64          `json:"limb_darkening"`
	Grid          *gridRequest       `json:"grid"`
}

type gridRequest struct {
	Start   float64   `json:"start"`
	Stop    float64   `json:"stop"`
	Samples int       `json:"samples"`
	Times   []float64 `json:"times"`
}

type lightCurveResponse struct {
	Times []float64 `json:"times"`
	Flux  []float64 `json:"flux"`
}

type positionRequest struct {
	Params map[string]float64 `json:"params"`
	Times  []float64          `json:"times"`
	Frame  string             `json:"frame"` // relative | planet | star
}

type positionResponse struct {
	Times []float64 `json:"times"`
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
	Z     []float64 `json:"z"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleLightCurve(w http.ResponseWriter, r *http.Request) {
	var req systemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	s.evaluateLightCurve(w, r, req)
}

func (s *Server) evaluateLightCurve(w http.ResponseWriter, r *http.Request, req systemRequest) {
	times, err := s.gridTimes(req.Grid)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orbit, err := core.OrbitFromParams(req.Params)
	if err != nil {
		writeError(w, resolutionStatus(err), err.Error())
		return
	}
	ld, err := core.NewLimbDark(req.LimbDarkening...)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.engMetrics.IncScenarioBuilds()

	engine := core.NewLightCurveEngine(orbit, ld)
	engine.Workers = s.engineCfg.Workers
	s.engMetrics.SetWorkersInUse(engine.WorkerBound(len(times)))

	start := time.Now()
	flux := engine.LightCurve(times)
	s.engMetrics.ObserveCurveEval(time.Since(start))
	s.metrics.ObserveCurve(len(flux))

	if log := logging.LoggerFromContext(r.Context()); log != nil {
		log.Debug(r.Context(), "light curve evaluated",
			logging.Int("samples", len(flux)),
			logging.Float64("period", orbit.Period),
		)
	}
	writeJSON(w, http.StatusOK, lightCurveResponse{Times: times, Flux: flux})
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := validatePositionRequest(&req, s.engineCfg.MaxSamples); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orbit, err := core.OrbitFromParams(req.Params)
	if err != nil {
		writeError(w, resolutionStatus(err), err.Error())
		return
	}

	resp := positionResponse{
		Times: req.Times,
		X:     make([]float64, len(req.Times)),
		Y:     make([]float64, len(req.Times)),
		Z:     make([]float64, len(req.Times)),
	}
	for i, t := range req.Times {
		var pos core.Vec3
		switch req.Frame {
		case "planet":
			pos = orbit.PlanetPosition(t)
		case "star":
			pos = orbit.StarPosition(t)
		default:
			pos = orbit.RelativePosition(t)
		}
		resp.X[i], resp.Y[i], resp.Z[i] = pos.X, pos.Y, pos.Z
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"scenarios": s.store.Names()})
}

func (s *Server) handlePutScenario(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req systemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	sc := scenarioFromRequest(name, req)

	// Resolve before storing so the store only ever holds valid scenarios.
	if _, _, err := core.BuildScenario(&sc); err != nil {
		writeError(w, resolutionStatus(err), err.Error())
		return
	}
	if err := s.store.Put(sc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.metrics.SetStoredScenarios(s.store.Len())
	writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := s.store.Get(r.PathValue("name"))
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, requestFromScenario(sc))
}

func (s *Server) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.PathValue("name")); err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	s.metrics.SetStoredScenarios(s.store.Len())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScenarioLightCurve(w http.ResponseWriter, r *http.Request) {
	sc, err := s.store.Get(r.PathValue("name"))
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	req := requestFromScenario(sc)

	// The request body may override the stored grid.
	var override struct {
		Grid *gridRequest `json:"grid"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&override); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		if override.Grid != nil {
			req.Grid = override.Grid
		}
	}
	s.evaluateLightCurve(w, r, req)
}

// gridTimes materializes the request grid into timestamps.
func (s *Server) gridTimes(g *gridRequest) ([]float64, error) {
	if err := validateGridRequest(g, s.engineCfg.MaxSamples); err != nil {
		return nil, err
	}
	var (
		grid *timegrid.Grid
		err  error
	)
	if len(g.Times) > 0 {
		grid, err = timegrid.FromSamples(g.Times)
	} else {
		grid, err = timegrid.Uniform(g.Start, g.Stop, g.Samples)
	}
	if err != nil {
		return nil, err
	}
	return grid.Times(), nil
}

func scenarioFromRequest(name string, req systemRequest) model.Scenario {
	sc := model.Scenario{
		Name: name,
		System: model.TransitSystem{
			Name:          name,
			Params:        req.Params,
			LimbDarkening: req.LimbDarkening,
		},
	}
	if req.Grid != nil {
		sc.Grid = model.SampleGrid{
			Start:   req.Grid.Start,
			Stop:    req.Grid.Stop,
			Samples: req.Grid.Samples,
			Times:   req.Grid.Times,
		}
	}
	return sc
}

func requestFromScenario(sc model.Scenario) systemRequest {
	req := systemRequest{
		Params:        sc.System.Params,
		LimbDarkening: sc.System.LimbDarkening,
	}
	if sc.Grid.Samples > 0 || len(sc.Grid.Times) > 0 {
		req.Grid = &gridRequest{
			Start:   sc.Grid.Start,
			Stop:    sc.Grid.Stop,
			Samples: sc.Grid.Samples,
			Times:   sc.Grid.Times,
		}
	}
	return req
}

// resolutionStatus maps orbit resolution failures to HTTP status codes.
// Every sentinel from the resolver is a client error.
func resolutionStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownParam),
		errors.Is(err, core.ErrDuplicateParam),
		errors.Is(err, core.ErrNoRefTime),
		errors.Is(err, core.ErrBothRefTimes),
		errors.Is(err, core.ErrNoScale),
		errors.Is(err, core.ErrOverDetermined),
		errors.Is(err, core.ErrStellarTriple),
		errors.Is(err, core.ErrInclConflict),
		errors.Is(err, core.ErrDurationNeedsB),
		errors.Is(err, core.ErrDurationNeedsR),
		errors.Is(err, core.ErrOmegaAmbiguous),
		errors.Is(err, core.ErrTooManyLimbCoeff),
		errors.Is(err, timegrid.ErrEmptyGrid),
		errors.Is(err, timegrid.ErrInvertedGrid),
		errors.Is(err, timegrid.ErrNotMonotonic):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func storeStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrExists):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
