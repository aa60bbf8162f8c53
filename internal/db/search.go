package db

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/vecgate/internal/domain/filter"
)

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	TagField     string // TAG field holding metadata tokens (see MetadataToken)
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// KeysQuery is the input for a key-only (NOCONTENT) filtered search.
type KeysQuery struct {
	IndexName string
	TagField  string
	Filters   filter.Expression
	Limit     int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
// For KNN, Score is the raw distance reported by the index.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// MetadataToken maps one metadata key/value pair to an opaque TAG token.
// Writers store one token per metadata entry; equality filters match on it.
// Tokens are alphanumeric so they never need TAG escaping.
func MetadataToken(key string, v filter.Value) string {
	h := xxhash.New()
	_, _ = h.WriteString(key)
	_, _ = h.Write([]byte{0, byte(v.Kind()), 0})
	_, _ = h.WriteString(v.String())
	return "m" + strconv.FormatUint(h.Sum64(), 36)
}

// EncodeVector serializes a vector as little-endian FLOAT32 bytes, the layout
// FT VECTOR fields and the SQL BLOB column both expect.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector is the inverse of EncodeVector. It returns nil for a
// buffer whose length is not a multiple of 4.
func DecodeVector(b []byte) []float32 {
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
