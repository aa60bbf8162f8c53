package sqlvec

import (
	"sort"

	"github.com/viant/vec/search"

	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
	"github.com/kailas-cloud/vecgate/internal/domain/result"
)

// scorer computes the distance between the query vector and a stored one.
// Lower is closer for every space.
type scorer func(v []float32) float64

func newScorer(space domcol.Space, query []float32) scorer {
	q := search.Float32s(query)
	switch space {
	case domcol.SpaceCosine:
		qZero := q.Magnitude() == 0
		return func(v []float32) float64 {
			if qZero || search.Float32s(v).Magnitude() == 0 {
				return 1
			}
			return float64(q.CosineDistance(v))
		}
	case domcol.SpaceIP:
		return func(v []float32) float64 {
			return 1 - dot(query, v)
		}
	default:
		// squared euclidean, as reported by hnswlib-style stores
		return func(v []float32) float64 {
			d := float64(q.EuclideanDistance(v))
			return d * d
		}
	}
}

// dot has no counterpart in the distance kernels.
func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// topK keeps the n closest hits ordered by distance, then id.
func topK(hits []result.Hit, n int) []result.Hit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > n {
		hits = hits[:n]
	}
	return hits
}
