package rfm

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// clustering is the outcome of one k-means run.
type clustering struct {
	labels  []int
	centers [][]float64
	inertia float64
}

// kMeans runs Lloyd's algorithm from restarts k-means++ seedings and keeps
// the run with the lowest inertia.
func kMeans(points [][]float64, k, restarts, maxIter int, tol float64, rng *rand.Rand) clustering {
	best := clustering{inertia: math.Inf(1)}
	for r := 0; r < restarts; r++ {
		c := lloyd(points, seedPlusPlus(points, k, rng), maxIter, tol)
		if c.inertia < best.inertia {
			best = c
		}
	}
	return best
}

// seedPlusPlus picks initial centers with probability proportional to the
// squared distance from the nearest center chosen so far.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	first := points[rng.Intn(len(points))]
	centers = append(centers, append([]float64(nil), first...))

	dist := make([]float64, len(points))
	for i, p := range points {
		dist[i] = sqDist(p, centers[0])
	}

	for len(centers) < k {
		total := floats.Sum(dist)
		var next int
		if total == 0 {
			next = rng.Intn(len(points))
		} else {
			target := rng.Float64() * total
			for next = 0; next < len(dist)-1; next++ {
				target -= dist[next]
				if target <= 0 {
					break
				}
			}
		}
		center := append([]float64(nil), points[next]...)
		centers = append(centers, center)
		for i, p := range points {
			if d := sqDist(p, center); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return centers
}

func lloyd(points [][]float64, centers [][]float64, maxIter int, tol float64) clustering {
	k := len(centers)
	dim := len(points[0])
	labels := make([]int, len(points))

	for iter := 0; iter < maxIter; iter++ {
		assign(points, centers, labels)

		sums := make([][]float64, k)
		counts := make([]int, k)
		for j := range sums {
			sums[j] = make([]float64, dim)
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}

		shift := 0.0
		for j := range centers {
			if counts[j] == 0 {
				// Empty cluster keeps its previous center.
				continue
			}
			floats.Scale(1/float64(counts[j]), sums[j])
			shift += sqDist(sums[j], centers[j])
			centers[j] = sums[j]
		}
		if shift <= tol {
			break
		}
	}

	inertia := assign(points, centers, labels)
	return clustering{labels: labels, centers: centers, inertia: inertia}
}

// assign labels each point with its nearest center (lowest index on ties) and
// returns the total squared distance.
func assign(points [][]float64, centers [][]float64, labels []int) float64 {
	inertia := 0.0
	for i, p := range points {
		bestJ, bestD := 0, math.Inf(1)
		for j, c := range centers {
			if d := sqDist(p, c); d < bestD {
				bestJ, bestD = j, d
			}
		}
		labels[i] = bestJ
		inertia += bestD
	}
	return inertia
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}
