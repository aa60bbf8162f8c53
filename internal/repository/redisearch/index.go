package redisearch

import (
	"github.com/kailas-cloud/vecgate/internal/db"
	domcol "github.com/kailas-cloud/vecgate/internal/domain/collection"
)

// buildIndex creates the FT index for a collection: one TAG field with the
// metadata tokens and one FLOAT32 vector field using the collection's space.
func buildIndex(col domcol.Collection, algo db.VectorAlgorithm, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	spec := db.VectorSpec{
		Algo:     algo,
		Distance: distanceFor(col.Space()),
	}
	if algo == db.VectorHNSW {
		spec.M = hnsw.M
		spec.EFConstruct = hnsw.EFConstruct
	}

	return db.NewIndex(indexName(col.Name())).
		Prefix(docPrefix(col.Name())).
		Tag(fieldTags, ",").
		Vector(fieldVector, col.Dimension(), spec).
		Build()
}

func distanceFor(s domcol.Space) db.DistanceMetric {
	switch s {
	case domcol.SpaceCosine:
		return db.DistanceCosine
	case domcol.SpaceIP:
		return db.DistanceIP
	default:
		return db.DistanceL2
	}
}
