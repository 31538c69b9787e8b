package mp4

import (
	"bytes"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

// acceptedMimePrefixes are the container families this package will parse.
// Sniffing the file before the box cursor runs turns a non-ISO-BMFF input
// into a clear error instead of a confusing TruncatedBox deep in the tree.
var acceptedMimePrefixes = []string{
	"video/mp4",
	"video/quicktime",
	"video/x-m4v",
}

func checkContainerType(data []byte) error {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		for _, prefix := range acceptedMimePrefixes {
			if m.Is(prefix) {
				return nil
			}
		}
	}
	return errors.Errorf("mp4: unrecognized container type %q", mt.String())
}

// Extract implements the extraction path described in §6: it loads path,
// validates it looks like an ISO-BMFF container, reads the header summary
// from the configured video track, and — if cfg.ExtractMetadata is set —
// assembles the configured metadata track's sample chunks into one
// contiguous payload.
func Extract(path string, cfg Config) (*ExtractResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mp4: reading %s", path)
	}
	return ExtractBytes(data, cfg)
}

// ExtractBytes is Extract's pure, in-memory counterpart.
func ExtractBytes(data []byte, cfg Config) (*ExtractResult, error) {
	if err := checkContainerType(data); err != nil {
		return nil, err
	}

	end := len(data)

	moovBox, ok, err := findTop(data, 0, end, boxTypeMoov)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.WithStack(ErrMissingMoov)
	}

	if _, ok, err := findTop(data, 0, end, boxTypeMdat); err != nil {
		return nil, err
	} else if !ok {
		return nil, errors.WithStack(ErrMissingMdat)
	}

	moovStart, moovEnd := moovBox.PayloadStart(), int(moovBox.End())

	mvhdBox, ok, err := findChild(data, moovStart, moovEnd, boxTypeMvhd)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.WithStack(&MissingBoxError{Type: boxTypeMvhd})
	}
	mvhd, err := readMvhd(data, mvhdBox)
	if err != nil {
		return nil, err
	}

	videoTrak, err := findTrak(data, moovStart, moovEnd, cfg.VideoTrakIndex)
	if err != nil {
		return nil, err
	}
	tkhdBox, err := descendPath(data, videoTrak, boxTypeTkhd)
	if err != nil {
		return nil, err
	}
	tkhd, err := readTkhd(data, tkhdBox)
	if err != nil {
		return nil, err
	}

	// Frame rate is sample_count/duration_seconds using only the video
	// track's first stts entry (§9): variable-cadence files aren't handled.
	videoStbl, err := descendPath(data, videoTrak, boxTypeMdia, boxTypeMinf, boxTypeStbl)
	if err != nil {
		return nil, err
	}
	videoSampleCount, _, err := readSttsFromStbl(data, videoStbl)
	if err != nil {
		return nil, err
	}

	durationSeconds := mvhd.DurationSeconds()

	result := &ExtractResult{
		Header: HeaderSummary{
			Width:           tkhd.Width,
			Height:          tkhd.Height,
			DurationSeconds: durationSeconds,
		},
	}
	if durationSeconds > 0 {
		result.Header.FrameRate = float64(videoSampleCount) / durationSeconds
	}

	if !cfg.ExtractMetadata {
		return result, nil
	}

	metaStbl, err := stblFor(data, moovStart, moovEnd, cfg.MetadataTrakIndex)
	if err != nil {
		return nil, err
	}
	table, err := readSampleTable(data, metaStbl, cfg.SpecCorrectStsz)
	if err != nil {
		return nil, err
	}

	payload, err := assembleChunks(bytes.NewReader(data), table)
	if err != nil {
		return nil, err
	}
	result.MetadataPayload = payload

	return result, nil
}
