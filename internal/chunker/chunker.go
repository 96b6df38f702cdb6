// Package chunker splits a work list into fixed-size batches.
package chunker

// MaxChunkSize caps a batch regardless of catalog size.
const MaxChunkSize = 10

// Chunk is a contiguous batch of items. Start is the offset of Target[0] in
// the original slice.
type Chunk[T any] struct {
	Index  int
	Start  int
	Target []T
}

// SizeFor returns the batch size used for total items: total/10+1, clamped
// to [1, MaxChunkSize].
func SizeFor(total int) int {
	size := total/10 + 1
	if size < 1 {
		size = 1
	}
	if size > MaxChunkSize {
		size = MaxChunkSize
	}
	return size
}

// SplitIntoChunks splits items into chunks of chunkSize. The final chunk may
// be shorter. A non-positive chunkSize is treated as 1.
func SplitIntoChunks[T any](items []T, chunkSize int) []Chunk[T] {
	if chunkSize < 1 {
		chunkSize = 1
	}
	var chunks []Chunk[T]
	n := len(items)

	for i := 0; i < n; i += chunkSize {
		end := i + chunkSize
		if end > n {
			end = n
		}
		chunks = append(chunks, Chunk[T]{
			Index:  len(chunks),
			Start:  i,
			Target: items[i:end],
		})
	}

	return chunks
}

// Split is SplitIntoChunks with SizeFor(len(items)).
func Split[T any](items []T) []Chunk[T] {
	return SplitIntoChunks(items, SizeFor(len(items)))
}
