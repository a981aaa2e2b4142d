package chunk

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/careline-ai/careline/internal/db"
	"github.com/careline-ai/careline/internal/domain"
)

func indexName(collection string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, collection)
}

func chunkPrefix(collection string) string {
	return fmt.Sprintf("%s%s:chunk:", domain.KeyPrefix, collection)
}

func chunkKey(collection, chunkID string) string {
	return chunkPrefix(collection) + chunkID
}

// sourcePattern matches every chunk key of a source. Chunk IDs are
// "<source_id>:<index>". The glob also matches sources whose ID extends
// sourceID with further colon segments; ownsChunkKey narrows the scan.
func sourcePattern(collection, sourceID string) string {
	return chunkPrefix(collection) + sourceID + ":*"
}

// ownsChunkKey reports whether a scanned key holds a chunk of exactly this
// source: the remainder after "<source_id>:" must be a bare chunk index, so
// "doc" never claims the chunks of "doc:v2".
func ownsChunkKey(key, collection, sourceID string) bool {
	rest := strings.TrimPrefix(key, chunkPrefix(collection)+sourceID+":")
	_, err := strconv.Atoi(rest)
	return err == nil
}

// chunkFields flattens a chunk into hash fields. The vector is encoded as a
// little-endian float32 blob for the FT vector field.
func chunkFields(c domain.Chunk, order int) map[string]string {
	return map[string]string{
		"source_id":   c.SourceID,
		"chunk_index": strconv.Itoa(order),
		"offset":      strconv.Itoa(c.Offset),
		"text":        c.Text,
		"vector":      encodeVector(c.Vector),
	}
}

func encodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// parseHit reconstructs a scored chunk from a search entry.
func parseHit(collection string, entry db.SearchEntry) domain.ScoredChunk {
	chunkID := strings.TrimPrefix(entry.Key, chunkPrefix(collection))
	offset, _ := strconv.Atoi(entry.Fields["offset"])
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			ID:       chunkID,
			SourceID: entry.Fields["source_id"],
			Text:     entry.Fields["text"],
			Offset:   offset,
		},
		Score: entry.Score,
	}
}

// chunkOrder extracts the per-source chunk index from a chunk ID for stable
// tie-breaking. Unknown formats sort last.
func chunkOrder(c domain.Chunk) int {
	idx := strings.LastIndexByte(c.ID, ':')
	if idx < 0 {
		return math.MaxInt
	}
	n, err := strconv.Atoi(c.ID[idx+1:])
	if err != nil {
		return math.MaxInt
	}
	return n
}
