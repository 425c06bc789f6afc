package model

// TransitSystem describes one star-planet system by its named physical
// parameters. Params accepts any of the keyword spellings the orbit
// resolver understands; LimbDarkening holds zero to two polynomial
// coefficients.
type TransitSystem struct {
	Name          string
	Params        map[string]float64
	LimbDarkening []float64
}

// SampleGrid describes how a light curve is sampled: either a uniform
// span with a sample count, or explicit timestamps. Times wins when both
// are present.
type SampleGrid struct {
	Start   float64
	Stop    float64
	Samples int
	Times   []float64
}

// Scenario couples a system with the grid it is observed on.
type Scenario struct {
	Name   string
	System TransitSystem
	Grid   SampleGrid
}
