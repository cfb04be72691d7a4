// pkg/force/jiggle.go
package force

import "golang.org/x/exp/rand"

// jiggleScale bounds the magnitude of a jiggle to half of it.
const jiggleScale = 1e-6

// NewJiggle returns a generator of tiny non-zero offsets in
// (-jiggleScale/2, jiggleScale/2), drawn from src. The generator is not safe
// for concurrent use.
func NewJiggle(src rand.Source) func() float64 {
	rng := rand.New(src)
	return func() float64 {
		for {
			if v := (rng.Float64() - 0.5) * jiggleScale; v != 0 {
				return v
			}
		}
	}
}
