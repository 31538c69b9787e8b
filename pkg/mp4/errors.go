package mp4

import (
	"errors"
	"strconv"
)

// Sentinel errors returned by the mp4 package. Use errors.Is/errors.As to
// distinguish these from wrapped I/O failures.
var (
	// ErrMissingMoov is returned when a required moov box cannot be found.
	ErrMissingMoov = errors.New("mp4: missing moov box")

	// ErrMissingMdat is returned when a required mdat box cannot be found.
	ErrMissingMdat = errors.New("mp4: missing mdat box")

	// ErrFaststartUnsupported is returned when moov precedes mdat. Rewriting
	// moov in that layout would change its size and require recomputing every
	// stco/co64 entry that points into mdat, which this writer does not do.
	ErrFaststartUnsupported = errors.New("mp4: moov precedes mdat, faststart layout not supported for rewriting")

	// ErrUnsupportedDateFormat is returned when a creation-date string matches
	// none of the accepted patterns.
	ErrUnsupportedDateFormat = errors.New("mp4: unsupported creation date format")

	// ErrOverflow is returned when a computed box size exceeds the range a
	// 64-bit extended size field can represent.
	ErrOverflow = errors.New("mp4: box size overflow")
)

// TruncatedBoxError is returned by the box cursor when a box header declares
// more data than remains in the enclosing range.
type TruncatedBoxError struct {
	Offset   int
	Expected int
	Actual   int
}

func (e *TruncatedBoxError) Error() string {
	return "mp4: truncated box at offset " + strconv.Itoa(e.Offset) +
		": expected " + strconv.Itoa(e.Expected) + " bytes, have " + strconv.Itoa(e.Actual)
}

// TruncatedTableError is returned by the track table decoder when a sample
// table box's payload is shorter than its declared entry count requires.
type TruncatedTableError struct {
	Which    string
	Expected int
	Actual   int
}

func (e *TruncatedTableError) Error() string {
	return "mp4: truncated " + e.Which + " table: expected " + strconv.Itoa(e.Expected) +
		" bytes, have " + strconv.Itoa(e.Actual)
}

// CorruptSampleTableError is returned when offset/size tables disagree in
// length, or a chunk read runs past the end of the backing file.
type CorruptSampleTableError struct {
	Reason string
}

func (e *CorruptSampleTableError) Error() string {
	return "mp4: corrupt sample table: " + e.Reason
}

// MissingBoxError is returned when a required descendant box is absent from
// the tree, e.g. a trak with no mdia/minf/stbl chain.
type MissingBoxError struct {
	Type BoxType
}

func (e *MissingBoxError) Error() string {
	return "mp4: missing " + e.Type.String() + " box"
}
