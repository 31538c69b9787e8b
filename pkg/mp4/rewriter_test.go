package mp4

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildNonMdtaMeta(t *testing.T) []byte {
	t.Helper()
	var hdlrContent []byte
	hdlrContent = append(hdlrContent, 0, 0, 0, 0)
	hdlrContent = append(hdlrContent, 0, 0, 0, 0)
	hdlrContent = append(hdlrContent, []byte("mdir")...)
	hdlrContent = append(hdlrContent, make([]byte, 12)...)
	hdlrContent = append(hdlrContent, 0x00)
	hdlr := makeBox32("hdlr", hdlrContent)

	var metaContent []byte
	metaContent = append(metaContent, 0, 0, 0, 0)
	metaContent = append(metaContent, hdlr...)
	return makeBox32("meta", metaContent)
}

func buildMoovWithUdtaMeta(t *testing.T, oldPairs []MetaKeyValue) (moov []byte, nonMdtaMeta []byte) {
	t.Helper()
	mvhd := buildMvhdBox(600, 1200)
	videoTrak := buildTrakBox(1920, 1080, 60, 10, nil, nil)
	nonMdtaMeta = buildNonMdtaMeta(t)

	oldMeta, err := buildMdtaMeta(oldPairs)
	require.NoError(t, err)
	udta := makeBox32("udta", oldMeta)

	var content []byte
	content = append(content, mvhd...)
	content = append(content, videoTrak...)
	content = append(content, nonMdtaMeta...)
	content = append(content, udta...)
	moov = makeBox32("moov", content)
	return
}

func TestRewriteBytes_ReplacesMdtaPreservesOther(t *testing.T) {
	t.Parallel()

	oldPairs := []MetaKeyValue{{Key: KeyMake, Value: "Old"}}
	moov, nonMdtaMeta := buildMoovWithUdtaMeta(t, oldPairs)

	mdatPayload := []byte("PAYLOADDATA-UNCHANGED")
	mdat := makeBox32("mdat", mdatPayload)

	var src []byte
	src = append(src, makeBox32("ftyp", []byte("isommp42"))...)
	mdatStart := len(src)
	src = append(src, mdat...)
	mdatEnd := len(src)
	src = append(src, moov...)

	newPairs := []MetaKeyValue{
		{Key: KeyMake, Value: "DJI"},
		{Key: KeyModel, Value: "Mavic 3"},
	}

	out, err := RewriteBytes(src, newPairs)
	require.NoError(t, err)

	// mdat bytes, header included, are byte-identical (§8 universal invariant).
	assert.Equal(t, src[mdatStart:mdatEnd], out[mdatStart:mdatEnd])

	outMoovBox, ok, err := findTop(out, 0, len(out), boxTypeMoov)
	require.NoError(t, err)
	require.True(t, ok)

	// The non-mdta meta directly under moov survives untouched.
	foundNonMdta, ok, err := findChild(out, outMoovBox.PayloadStart(), int(outMoovBox.End()), boxTypeMeta)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, nonMdtaMeta, out[foundNonMdta.Start:foundNonMdta.End()])
	assert.False(t, isMdtaMeta(out, foundNonMdta))

	// udta now carries the new pairs, not the old ones.
	udtaBox, ok, err := findChild(out, outMoovBox.PayloadStart(), int(outMoovBox.End()), boxTypeUdta)
	require.NoError(t, err)
	require.True(t, ok)
	metaBox, ok, err := findChild(out, udtaBox.PayloadStart(), int(udtaBox.End()), boxTypeMeta)
	require.NoError(t, err)
	require.True(t, ok)
	got, err := ReadMdtaMeta(out, metaBox)
	require.NoError(t, err)
	assert.Equal(t, newPairs, got)
}

func TestRewriteBytes_FaststartUnsupported(t *testing.T) {
	t.Parallel()

	moov := makeBox32("moov", buildMvhdBox(600, 600))
	mdat := makeBox32("mdat", []byte("payload"))

	var src []byte
	src = append(src, makeBox32("ftyp", []byte("isommp42"))...)
	src = append(src, moov...) // moov precedes mdat
	src = append(src, mdat...)

	_, err := RewriteBytes(src, nil)
	require.ErrorIs(t, err, ErrFaststartUnsupported)
}

func TestRewriteBytes_MissingMoov(t *testing.T) {
	t.Parallel()

	mdat := makeBox32("mdat", []byte("payload"))
	src := append(makeBox32("ftyp", []byte("isommp42")), mdat...)

	_, err := RewriteBytes(src, nil)
	require.ErrorIs(t, err, ErrMissingMoov)
}

func TestRewriteBytes_MissingMdat(t *testing.T) {
	t.Parallel()

	moov := makeBox32("moov", buildMvhdBox(600, 600))
	src := append(makeBox32("ftyp", []byte("isommp42")), moov...)

	_, err := RewriteBytes(src, nil)
	require.ErrorIs(t, err, ErrMissingMdat)
}
