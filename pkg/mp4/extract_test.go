package mp4

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBytes_HeaderAndMetadataPayload(t *testing.T) {
	t.Parallel()

	chunk0 := []byte("telemetry-chunk-one-")
	chunk1 := []byte("telemetry-chunk-two--")
	mdatPayload := append(append([]byte{}, chunk0...), chunk1...)

	// ftyp precedes mdat in buildSyntheticFile, so mdat's payload starts at
	// mdatStart + 8 (the mdat box header length); offsets must be absolute
	// file positions, known only once the ftyp box's size is fixed.
	ftypLen := len(makeBox32("ftyp", []byte("isommp42")))
	const mdatHeaderLen = 8
	off0 := uint32(ftypLen + mdatHeaderLen)
	off1 := off0 + uint32(len(chunk0))

	f := buildSyntheticFile(mdatPayload, 600, 1200, 1920, 1080, 60, 10,
		[]uint32{off0, off1}, []uint32{uint32(len(chunk0)), uint32(len(chunk1))})
	data := f.data

	cfg := DefaultConfig()
	result, err := ExtractBytes(data, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1920.0, result.Header.Width)
	assert.Equal(t, 1080.0, result.Header.Height)
	assert.Equal(t, 2.0, result.Header.DurationSeconds)
	assert.Equal(t, 30.0, result.Header.FrameRate)
	assert.Equal(t, append(append([]byte{}, chunk0...), chunk1...), result.MetadataPayload)
}

func TestExtractBytes_ExtractMetadataFalse_SkipsPayload(t *testing.T) {
	t.Parallel()

	f := buildSyntheticFile([]byte("unused"), 600, 600, 640, 480, 30, 10, nil, nil)

	cfg := DefaultConfig()
	cfg.ExtractMetadata = false

	result, err := ExtractBytes(f.data, cfg)
	require.NoError(t, err)
	assert.Nil(t, result.MetadataPayload)
	assert.Equal(t, 640.0, result.Header.Width)
	assert.Equal(t, 1.0, result.Header.DurationSeconds)
	assert.Equal(t, 30.0, result.Header.FrameRate)
}

func TestExtractBytes_RejectsUnrecognizedContainer(t *testing.T) {
	t.Parallel()

	_, err := ExtractBytes([]byte("this is plainly not a media container"), DefaultConfig())
	require.Error(t, err)
}

func TestExtractBytes_MissingMoov(t *testing.T) {
	t.Parallel()

	mdat := makeBox32("mdat", []byte{1, 2, 3})
	ftyp := makeBox32("ftyp", []byte("isommp42"))
	data := append(append([]byte{}, ftyp...), mdat...)

	_, err := ExtractBytes(data, DefaultConfig())
	require.ErrorIs(t, err, ErrMissingMoov)
}
