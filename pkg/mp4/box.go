package mp4

import "encoding/binary"

var be = binary.BigEndian

// BoxType is a four-character-code ISO-BMFF box type.
type BoxType [4]byte

func (t BoxType) String() string { return string(t[:]) }

func boxType(s string) BoxType {
	var t BoxType
	copy(t[:], s)
	return t
}

var (
	boxTypeFtyp = boxType("ftyp")
	boxTypeMoov = boxType("moov")
	boxTypeMdat = boxType("mdat")
	boxTypeMvhd = boxType("mvhd")
	boxTypeTrak = boxType("trak")
	boxTypeTkhd = boxType("tkhd")
	boxTypeMdia = boxType("mdia")
	boxTypeMinf = boxType("minf")
	boxTypeStbl = boxType("stbl")
	boxTypeStts = boxType("stts")
	boxTypeStco = boxType("stco")
	boxTypeCo64 = boxType("co64")
	boxTypeStsz = boxType("stsz")
	boxTypeUdta = boxType("udta")
	boxTypeMeta = boxType("meta")
	boxTypeHdlr = boxType("hdlr")
	boxTypeKeys = boxType("keys")
	boxTypeIlst = boxType("ilst")
	boxTypeData = boxType("data")
)

// fullBoxTypes are boxes whose payload begins with a 1-byte version and
// 3-byte flags field. meta is deliberately absent: whether a given file's
// meta box is a FullBox depends on its handler, and this system decides that
// per box rather than by a static table (see metaPayloadRange).
var fullBoxTypes = map[BoxType]bool{
	boxTypeMvhd: true,
	boxTypeTkhd: true,
	boxTypeStts: true,
	boxTypeStco: true,
	boxTypeCo64: true,
	boxTypeHdlr: true,
	boxTypeKeys: true,
}

func isFullBox(t BoxType) bool { return fullBoxTypes[t] }

// Box describes one ISO-BMFF box located within a backing byte range.
// Start and the header/payload boundaries are absolute offsets into that
// range; Box itself carries no reference to the bytes, so it is cheap to
// copy and safe to hold after the cursor has moved on.
type Box struct {
	Start        int
	TotalSize    int64
	Type         BoxType
	HeaderLength int
}

// End returns the absolute offset one past the last byte of the box.
func (b Box) End() int64 { return int64(b.Start) + b.TotalSize }

// PayloadStart returns the absolute offset of the first payload byte.
func (b Box) PayloadStart() int { return b.Start + b.HeaderLength }

// readHeader parses the box header at pos within buf[0:end), per §4.1:
//   - size(u32 BE), type(4 bytes)
//   - size == 1 means an 8-byte extended size follows (header_length = 16)
//   - size == 0 means the box extends to end of the enclosing range
//
// It never panics: any header that would run past end returns a
// *TruncatedBoxError.
func readHeader(buf []byte, pos, end int) (Box, error) {
	if end-pos < 8 {
		return Box{}, &TruncatedBoxError{Offset: pos, Expected: 8, Actual: end - pos}
	}
	size := uint64(be.Uint32(buf[pos:]))
	var t BoxType
	copy(t[:], buf[pos+4:pos+8])
	headerLen := 8

	if size == 1 {
		if end-pos < 16 {
			return Box{}, &TruncatedBoxError{Offset: pos, Expected: 16, Actual: end - pos}
		}
		size = be.Uint64(buf[pos+8:])
		headerLen = 16
	}

	if size == 0 {
		size = uint64(end - pos)
	}

	if size < uint64(headerLen) {
		return Box{}, &TruncatedBoxError{Offset: pos, Expected: headerLen, Actual: int(size)}
	}
	if pos+int(size) > end {
		return Box{}, &TruncatedBoxError{Offset: pos, Expected: int(size), Actual: end - pos}
	}

	return Box{Start: pos, TotalSize: int64(size), Type: t, HeaderLength: headerLen}, nil
}

// iterBoxes lazily yields the sequence of sibling boxes within buf[start:end).
// Iteration stops cleanly (without error) once fewer than 8 bytes remain; it
// stops with an error only when a header is malformed or declares a size
// that would run past end, per §4.1.
func iterBoxes(buf []byte, start, end int, yield func(Box) (bool, error)) error {
	pos := start
	for end-pos >= 8 {
		b, err := readHeader(buf, pos, end)
		if err != nil {
			return err
		}
		cont, err := yield(b)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
		pos = int(b.End())
	}
	return nil
}

// findTop returns the first top-level box of type t within buf[start:end),
// or ok=false if none exists.
func findTop(buf []byte, start, end int, t BoxType) (box Box, ok bool, err error) {
	err = iterBoxes(buf, start, end, func(b Box) (bool, error) {
		if b.Type == t {
			box = b
			ok = true
			return false, nil
		}
		return true, nil
	})
	return box, ok, err
}
