package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gocarina/gocsv"
)

//go:embed probes.csv
var defaultProbes []byte

// Probe is a spot in the level with the brightness and exposure a player
// standing there should read.
type Probe struct {
	Name       string  `csv:"name"`
	X          float64 `csv:"x"`
	Y          float64 `csv:"y"`
	Z          float64 `csv:"z"` // Capsule centre
	Crouch     bool    `csv:"crouch"`
	Brightness float64 `csv:"brightness"`
	Visibility float64 `csv:"visibility"`
}

// Location returns the capsule centre.
func (p Probe) Location() mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Y, p.Z}
}

// LoadProbes reads probes from a CSV file, or the built-in set for the
// default level when path is empty.
func LoadProbes(path string) ([]Probe, error) {
	var probes []Probe
	if path == "" {
		if err := gocsv.UnmarshalBytes(defaultProbes, &probes); err != nil {
			return nil, fmt.Errorf("parsing built-in probes: %w", err)
		}
		return probes, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening probes: %w", err)
	}
	defer f.Close()
	if err := gocsv.UnmarshalFile(f, &probes); err != nil {
		return nil, fmt.Errorf("parsing probes: %w", err)
	}
	if len(probes) == 0 {
		return nil, fmt.Errorf("no probes in %s", path)
	}
	return probes, nil
}
