package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/stellarflux/transit-simulator/model"
	"github.com/stellarflux/transit-simulator/timegrid"
)

// internal JSON shapes, kept unexported so the wire format can evolve
// without touching the model types.
type scenarioJSON struct {
	Name          string             `json:"name"`
	Params        map[string]float64 `json:"params"`
	LimbDarkening []float64          `json:"limb_darkening"`
	Grid          *gridJSON          `json:"grid"`
}

type gridJSON struct {
	Start   float64   `json:"start"`
	Stop    float64   `json:"stop"`
	Samples int       `json:"samples"`
	Times   []float64 `json:"times"`
}

// ParseScenario reads a JSON scenario from r into the model form without
// resolving it. Only JSON and structural problems fail here; parameter
// consistency is checked by BuildScenario.
func ParseScenario(r io.Reader) (*model.Scenario, error) {
	var payload scenarioJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("ParseScenario: decode failed: %w", err)
	}
	if len(payload.Params) == 0 {
		return nil, fmt.Errorf("ParseScenario: scenario %q has no params", payload.Name)
	}

	sc := &model.Scenario{
		Name: payload.Name,
		System: model.TransitSystem{
			Name:          payload.Name,
			Params:        payload.Params,
			LimbDarkening: payload.LimbDarkening,
		},
	}
	if payload.Grid != nil {
		sc.Grid = model.SampleGrid{
			Start:   payload.Grid.Start,
			Stop:    payload.Grid.Stop,
			Samples: payload.Grid.Samples,
			Times:   payload.Grid.Times,
		}
	}
	return sc, nil
}

// BuildScenario resolves a parsed scenario into an evaluable engine and
// its observation grid. A scenario without a grid gets a nil grid; the
// caller supplies timestamps instead.
func BuildScenario(sc *model.Scenario) (*LightCurveEngine, *timegrid.Grid, error) {
	orbit, err := OrbitFromParams(sc.System.Params)
	if err != nil {
		return nil, nil, fmt.Errorf("BuildScenario: scenario %q: %w", sc.Name, err)
	}
	ld, err := NewLimbDark(sc.System.LimbDarkening...)
	if err != nil {
		return nil, nil, fmt.Errorf("BuildScenario: scenario %q: %w", sc.Name, err)
	}

	var grid *timegrid.Grid
	switch {
	case len(sc.Grid.Times) > 0:
		grid, err = timegrid.FromSamples(sc.Grid.Times)
	case sc.Grid.Samples > 0:
		grid, err = timegrid.Uniform(sc.Grid.Start, sc.Grid.Stop, sc.Grid.Samples)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("BuildScenario: scenario %q: %w", sc.Name, err)
	}

	return NewLightCurveEngine(orbit, ld), grid, nil
}

// LoadScenario reads, parses, and resolves a scenario in one step.
func LoadScenario(r io.Reader) (*LightCurveEngine, *timegrid.Grid, error) {
	sc, err := ParseScenario(r)
	if err != nil {
		return nil, nil, err
	}
	return BuildScenario(sc)
}
