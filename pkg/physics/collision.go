// pkg/physics/collision.go

// Package physics provides exact, brute-force circle overlap checks. They
// serve as the reference the pruned collide force is measured against.
package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Circle represents a circular collision shape
type Circle struct {
	Center r2.Vec
	Radius float64
}

// Collides checks if two circles are overlapping. Touching circles do not collide.
func (c Circle) Collides(other Circle) bool {
	r := c.Radius + other.Radius
	return r2.Norm2(r2.Sub(other.Center, c.Center)) < r*r
}

// CollisionResult contains information about a collision
type CollisionResult struct {
	Collided     bool
	Normal       r2.Vec
	Penetration  float64
	ContactPoint r2.Vec
}

// CheckCollision performs detailed collision detection between two circles.
// The normal points from a to b; it is zero for concentric circles.
func CheckCollision(a, b Circle) CollisionResult {
	// Vector from A to B
	normal := r2.Sub(b.Center, a.Center)
	distance := r2.Norm(normal)

	if distance >= a.Radius+b.Radius {
		return CollisionResult{Collided: false}
	}

	if distance > 0 {
		normal = r2.Scale(1/distance, normal)
	} else {
		normal = r2.Vec{}
	}

	return CollisionResult{
		Collided:     true,
		Normal:       normal,
		Penetration:  a.Radius + b.Radius - distance,
		ContactPoint: r2.Add(a.Center, r2.Scale(a.Radius, normal)),
	}
}

// Overlap summarises pairwise penetration across a set of circles.
type Overlap struct {
	Pairs int     // number of overlapping pairs
	Total float64 // sum of penetration depths
	Max   float64 // deepest penetration
}

// MeasureOverlap checks every pair of circles. It is quadratic in len(circles).
func MeasureOverlap(circles []Circle) Overlap {
	var o Overlap
	for i := range circles {
		for j := i + 1; j < len(circles); j++ {
			res := CheckCollision(circles[i], circles[j])
			if !res.Collided {
				continue
			}
			o.Pairs++
			o.Total += res.Penetration
			o.Max = math.Max(o.Max, res.Penetration)
		}
	}
	return o
}

// OverlappingPairs returns the index pairs (i < j) of overlapping circles in
// lexical order.
func OverlappingPairs(circles []Circle) [][2]int {
	var pairs [][2]int
	for i := range circles {
		for j := i + 1; j < len(circles); j++ {
			if circles[i].Collides(circles[j]) {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}
