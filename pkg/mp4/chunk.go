package mp4

import (
	"io"

	"github.com/pkg/errors"
)

// assembleChunks reads each (offset, size) pair from src in table order and
// concatenates them into one contiguous buffer (§4.4). Forward, table-order
// concatenation is the canonical behavior; a reverse-append variant exists
// in one historical revision of the source and is a bug, not a format
// requirement (§9) — it is not reproduced here.
func assembleChunks(src io.ReaderAt, table SampleTable) ([]byte, error) {
	if len(table.Offsets) != len(table.Sizes) {
		return nil, errors.WithStack(&CorruptSampleTableError{
			Reason: "offset and size table lengths disagree",
		})
	}

	var total uint64
	for _, sz := range table.Sizes {
		total += uint64(sz)
	}

	out := make([]byte, 0, total)
	for i, off := range table.Offsets {
		size := table.Sizes[i]
		if size == 0 {
			continue
		}
		chunk := make([]byte, size)
		n, err := src.ReadAt(chunk, int64(off))
		if err != nil && err != io.EOF {
			return nil, errors.Wrapf(err, "mp4: reading chunk %d at offset %d", i, off)
		}
		if n != int(size) {
			return nil, errors.WithStack(&CorruptSampleTableError{
				Reason: "short read assembling chunk",
			})
		}
		out = append(out, chunk...)
	}

	return out, nil
}
