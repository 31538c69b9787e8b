package mp4

import "github.com/pkg/errors"

// MovieHeader holds the fields this system reads from mvhd (§3).
type MovieHeader struct {
	Timescale uint32
	Duration  uint64 // in Timescale ticks; u32 in version 0, u64 in version 1
}

// DurationSeconds returns Duration expressed in seconds.
func (m MovieHeader) DurationSeconds() float64 {
	if m.Timescale == 0 {
		return 0
	}
	return float64(m.Duration) / float64(m.Timescale)
}

// TrackHeader holds the fields this system reads from tkhd (§3). Width and
// Height are already converted from 16.16 fixed-point to float64 pixels.
type TrackHeader struct {
	Width  float64
	Height float64
}

// SampleTable holds one track's sample-table data (§3): the sample
// count/delta from stts, and the offset/size tables from stco-or-co64 and
// stsz. It is built once during parsing, consumed once by the chunk
// assembler, and then discarded; nothing else in this package mutates it.
type SampleTable struct {
	SampleCount uint32
	SampleDelta uint32
	Offsets     []uint64
	Sizes       []uint32
}

// readMvhd decodes mvhd per the offsets in §4.3: timescale always at
// payload+12, duration at payload+16 (u32, version 0) or payload+20
// (u64, version 1).
func readMvhd(buf []byte, box Box) (MovieHeader, error) {
	data := buf[box.PayloadStart():box.End()]
	version := data[0]
	need := 20
	if version == 1 {
		need = 28
	}
	if len(data) < need {
		return MovieHeader{}, &TruncatedTableError{Which: "mvhd", Expected: need, Actual: len(data)}
	}
	mh := MovieHeader{Timescale: be.Uint32(data[12:16])}
	if version == 1 {
		mh.Duration = be.Uint64(data[20:28])
	} else {
		mh.Duration = uint64(be.Uint32(data[16:20]))
	}
	return mh, nil
}

// readTkhd decodes tkhd per §4.3: width at payload+76, height at payload+80,
// both u32 16.16 fixed point, regardless of version (the fixed-size v0/v1
// prefix before width/height differs in length elsewhere in the box, but the
// values this system reads sit at these fixed offsets for the track headers
// this codebase targets).
func readTkhd(buf []byte, box Box) (TrackHeader, error) {
	data := buf[box.PayloadStart():box.End()]
	const need = 84
	if len(data) < need {
		return TrackHeader{}, &TruncatedTableError{Which: "tkhd", Expected: need, Actual: len(data)}
	}
	width := be.Uint32(data[76:80])
	height := be.Uint32(data[80:84])
	return TrackHeader{
		Width:  float64(width) / 65536,
		Height: float64(height) / 65536,
	}, nil
}

// readStts decodes only the first entry of stts per §4.3: sample_count at
// payload+8, sample_delta at payload+12. Any remaining entries are ignored;
// this codebase assumes uniform sample cadence (§9).
func readStts(buf []byte, box Box) (sampleCount, sampleDelta uint32, err error) {
	data := buf[box.PayloadStart():box.End()]
	const need = 16
	if len(data) < need {
		return 0, 0, &TruncatedTableError{Which: "stts", Expected: need, Actual: len(data)}
	}
	return be.Uint32(data[8:12]), be.Uint32(data[12:16]), nil
}

// readStco decodes stco per §4.3: entry_count at payload+4, u32 offsets
// starting at payload+8.
func readStco(buf []byte, box Box) ([]uint64, error) {
	data := buf[box.PayloadStart():box.End()]
	if len(data) < 8 {
		return nil, &TruncatedTableError{Which: "stco", Expected: 8, Actual: len(data)}
	}
	count := int(be.Uint32(data[4:8]))
	need := 8 + count*4
	if len(data) < need {
		return nil, &TruncatedTableError{Which: "stco", Expected: need, Actual: len(data)}
	}
	offsets := make([]uint64, count)
	for i := 0; i < count; i++ {
		offsets[i] = uint64(be.Uint32(data[8+i*4:]))
	}
	return offsets, nil
}

// readCo64 decodes co64 per §4.3: entry_count at payload+4, u64 offsets
// starting at payload+8.
func readCo64(buf []byte, box Box) ([]uint64, error) {
	data := buf[box.PayloadStart():box.End()]
	if len(data) < 8 {
		return nil, &TruncatedTableError{Which: "co64", Expected: 8, Actual: len(data)}
	}
	count := int(be.Uint32(data[4:8]))
	need := 8 + count*8
	if len(data) < need {
		return nil, &TruncatedTableError{Which: "co64", Expected: need, Actual: len(data)}
	}
	offsets := make([]uint64, count)
	for i := 0; i < count; i++ {
		offsets[i] = be.Uint64(data[8+i*8:])
	}
	return offsets, nil
}

// readStsz decodes stsz per §4.3's intentionally-preserved quirk: this
// codebase reads three u32s (flags, version, entry_count) from payload
// start, not the spec-compliant FullBox-version/flags + sample_size +
// sample_count layout, and then reads entry_count u32 sizes starting at
// payload+12. This matches the source's reading pattern and happens to work
// for the drone files in question, where the spec-compliant sample_size
// field would be zero anyway (see §9 and SpecCorrectStsz).
func readStsz(buf []byte, box Box) ([]uint32, error) {
	data := buf[box.PayloadStart():box.End()]
	if len(data) < 12 {
		return nil, &TruncatedTableError{Which: "stsz", Expected: 12, Actual: len(data)}
	}
	count := int(be.Uint32(data[8:12]))
	need := 12 + count*4
	if len(data) < need {
		return nil, &TruncatedTableError{Which: "stsz", Expected: need, Actual: len(data)}
	}
	sizes := make([]uint32, count)
	for i := 0; i < count; i++ {
		sizes[i] = be.Uint32(data[12+i*4:])
	}
	return sizes, nil
}

// readStszSpecCorrect decodes stsz per the actual ISO/IEC 14496-12 layout:
// FullBox version/flags (4 bytes), sample_size (u32), sample_count (u32),
// and per-entry sizes only when sample_size == 0. It exists as the test flag
// §9 calls for; readStsz above remains the default behavior this system
// uses, for binary compatibility with the source's drone files.
func readStszSpecCorrect(buf []byte, box Box) ([]uint32, error) {
	data := buf[box.PayloadStart():box.End()]
	if len(data) < 12 {
		return nil, &TruncatedTableError{Which: "stsz", Expected: 12, Actual: len(data)}
	}
	sampleSize := be.Uint32(data[4:8])
	count := int(be.Uint32(data[8:12]))
	if sampleSize != 0 {
		sizes := make([]uint32, count)
		for i := range sizes {
			sizes[i] = sampleSize
		}
		return sizes, nil
	}
	need := 12 + count*4
	if len(data) < need {
		return nil, &TruncatedTableError{Which: "stsz", Expected: need, Actual: len(data)}
	}
	sizes := make([]uint32, count)
	for i := 0; i < count; i++ {
		sizes[i] = be.Uint32(data[12+i*4:])
	}
	return sizes, nil
}

// readSttsFromStbl locates and decodes the stts child of an stbl box.
func readSttsFromStbl(buf []byte, stbl Box) (sampleCount, sampleDelta uint32, err error) {
	start, end := stbl.PayloadStart(), int(stbl.End())
	box, ok, err := findChild(buf, start, end, boxTypeStts)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return 0, 0, &MissingBoxError{Type: boxTypeStts}
	}
	return readStts(buf, box)
}

// readSampleTable assembles a SampleTable for the stbl box by locating stts,
// stco/co64 and stsz among its children. When both stco and co64 are
// present, co64 wins (§4.3): it is checked after stco below, mirroring the
// source's independent-if-statement ordering that lets a later co64 parse
// overwrite an earlier stco one.
func readSampleTable(buf []byte, stbl Box, specCorrectStsz bool) (SampleTable, error) {
	var st SampleTable

	start, end := stbl.PayloadStart(), int(stbl.End())

	if box, ok, err := findChild(buf, start, end, boxTypeStts); err != nil {
		return SampleTable{}, err
	} else if ok {
		count, delta, err := readStts(buf, box)
		if err != nil {
			return SampleTable{}, err
		}
		st.SampleCount, st.SampleDelta = count, delta
	}

	if box, ok, err := findChild(buf, start, end, boxTypeStco); err != nil {
		return SampleTable{}, err
	} else if ok {
		offsets, err := readStco(buf, box)
		if err != nil {
			return SampleTable{}, err
		}
		st.Offsets = offsets
	}

	if box, ok, err := findChild(buf, start, end, boxTypeCo64); err != nil {
		return SampleTable{}, err
	} else if ok {
		offsets, err := readCo64(buf, box)
		if err != nil {
			return SampleTable{}, err
		}
		st.Offsets = offsets
	}

	if box, ok, err := findChild(buf, start, end, boxTypeStsz); err != nil {
		return SampleTable{}, err
	} else if ok {
		var sizes []uint32
		var err error
		if specCorrectStsz {
			sizes, err = readStszSpecCorrect(buf, box)
		} else {
			sizes, err = readStsz(buf, box)
		}
		if err != nil {
			return SampleTable{}, err
		}
		st.Sizes = sizes
	}

	if len(st.Offsets) != len(st.Sizes) {
		return SampleTable{}, errors.WithStack(&CorruptSampleTableError{
			Reason: "offset and size table lengths disagree",
		})
	}

	return st, nil
}
