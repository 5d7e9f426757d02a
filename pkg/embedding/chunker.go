package embedding

import (
	"errors"
	"strings"
)

// Chunks splits a canonical document into deterministic character windows of
// at most size bytes. A window prefers to break at the last delimiter past
// its midpoint so event_value tokens stay intact; a window with no usable
// delimiter is cut hard at size. The exact size is a tunable, not a model
// constant — see EMBEDDING_CHUNK_SIZE.
func Chunks(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 || len(text) <= size {
		return []string{text}
	}

	var chunks []string
	remaining := text
	for len(remaining) > size {
		window := remaining[:size]
		cut := strings.LastIndexByte(window, '_')
		if cut <= size/2 {
			cut = size
		}
		chunks = append(chunks, strings.Trim(remaining[:cut], "_"))
		remaining = strings.TrimLeft(remaining[cut:], "_")
	}
	if remaining != "" {
		chunks = append(chunks, remaining)
	}
	return chunks
}

// Average folds per-chunk vectors into one element-wise mean. Averaging a
// single chunk returns that chunk's vector unchanged, which keeps short
// documents byte-for-byte stable across re-runs.
func Average(vectors [][]float64) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, errors.New("no vectors to average")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.New("zero-length vector")
	}
	sum := make([]float64, dim)
	for _, vec := range vectors {
		if len(vec) != dim {
			return nil, errors.New("inconsistent vector dimensions")
		}
		for i, v := range vec {
			sum[i] += v
		}
	}
	n := float64(len(vectors))
	for i := range sum {
		sum[i] /= n
	}
	return sum, nil
}
