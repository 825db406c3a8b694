// Package vector implements the fixed-width little-endian float32 codec
// used for embedding BLOBs, plus cosine similarity. Raw byte handling for
// vectors lives here and nowhere else.
package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// cosineEpsilon guards the similarity denominator against degenerate
// (all-zero) vectors.
const cosineEpsilon = 1e-9

// Encode converts a float32 slice to its byte representation.
func Encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode converts a byte buffer back to a float32 slice. The buffer length
// must be a multiple of 4.
func Decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("decode vector: %d bytes is not a whole number of float32s", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Cosine computes the cosine similarity of two vectors. Mismatched or empty
// vectors score 0. The epsilon in the denominator keeps zero vectors from
// dividing by zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		normA += ai * ai
		normB += bi * bi
	}

	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + cosineEpsilon)
}
