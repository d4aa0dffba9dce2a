// Package particles generates the deterministic floating particle field for the landing page.
package particles

import (
	"errors"
	"math"
)

const (
	DefaultCount = 35
	MaxCount     = 200

	ColorCoral = "coral"
	ColorCyan  = "cyan"
)

var ErrInvalidCount = errors.New("particles: count must be between 0 and 200")

type Particle struct {
	ID       int     `json:"id"`
	Left     float64 `json:"left"`
	Top      float64 `json:"top"`
	Size     float64 `json:"size"`
	Color    string  `json:"color"`
	Opacity  float64 `json:"opacity"`
	Duration float64 `json:"duration"`
	Delay    float64 `json:"delay"`
	Sway     float64 `json:"sway"`
}

// Seeded returns the fractional part of sin(seed*9999)*10000, a value in [0, 1).
func Seeded(seed float64) float64 {
	x := math.Sin(seed*9999) * 10000
	return x - math.Floor(x)
}

// Generate returns count particles. The same count always yields the same field.
func Generate(count int) ([]Particle, error) {
	if count < 0 || count > MaxCount {
		return nil, ErrInvalidCount
	}

	out := make([]Particle, count)
	for i := range out {
		out[i] = At(i)
	}
	return out, nil
}

// At returns the i-th particle of every field.
func At(i int) Particle {
	seed := float64(i + 1)

	color := ColorCyan
	if Seeded(seed*4) > 0.5 {
		color = ColorCoral
	}

	return Particle{
		ID:       i,
		Left:     Seeded(seed) * 100,
		Top:      Seeded(seed*2) * 100,
		Size:     2 + Seeded(seed*3)*2,
		Color:    color,
		Opacity:  0.3 + Seeded(seed*5)*0.2,
		Duration: 40 + Seeded(seed*6)*20,
		Delay:    Seeded(seed*7) * -40,
		Sway:     20 + Seeded(seed*8)*30,
	}
}
