package embedding

import (
	"strings"
	"testing"
)

func TestChunksShortTextIsSingleChunk(t *testing.T) {
	chunks := Chunks("MainDrug_Warfarin", 2000)
	if len(chunks) != 1 || chunks[0] != "MainDrug_Warfarin" {
		t.Fatalf("expected the whole text as one chunk, got %v", chunks)
	}
}

func TestChunksEmptyText(t *testing.T) {
	if chunks := Chunks("", 2000); chunks != nil {
		t.Fatalf("expected no chunks, got %v", chunks)
	}
}

func TestChunksBreakAtDelimiter(t *testing.T) {
	text := strings.TrimSuffix(strings.Repeat("MainDrug_Warfarin_", 10), "_")
	chunks := Chunks(text, 50)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 50 {
			t.Fatalf("chunk %d exceeds size: %d bytes", i, len(chunk))
		}
		if strings.HasPrefix(chunk, "_") || strings.HasSuffix(chunk, "_") {
			t.Fatalf("chunk %d carries a dangling delimiter: %q", i, chunk)
		}
	}

	joined := strings.Join(chunks, "_")
	if joined != text {
		t.Fatalf("chunks lost content:\n got  %q\n want %q", joined, text)
	}
}

func TestChunksHardCutWithoutDelimiter(t *testing.T) {
	text := strings.Repeat("a", 120)
	chunks := Chunks(text, 50)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0] != strings.Repeat("a", 50) {
		t.Fatalf("expected hard cut at size, got %d bytes", len(chunks[0]))
	}
}

func TestAverageSingleVectorIsIdentity(t *testing.T) {
	vec := []float64{0.25, -1.5, 3.0}
	avg, err := Average([][]float64{vec})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range vec {
		if avg[i] != vec[i] {
			t.Fatalf("element %d changed: %v vs %v", i, avg[i], vec[i])
		}
	}
}

func TestAverageElementWiseMean(t *testing.T) {
	avg, err := Average([][]float64{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if avg[0] != 2 || avg[1] != 3 {
		t.Fatalf("unexpected mean: %v", avg)
	}
}

func TestAverageRejectsMismatchedDimensions(t *testing.T) {
	if _, err := Average([][]float64{{1, 2}, {3}}); err == nil {
		t.Fatal("expected error for mismatched dimensions")
	}
	if _, err := Average(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}
