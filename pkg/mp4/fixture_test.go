package mp4

// This file builds small synthetic ISO-BMFF trees for tests that need a
// complete moov/mdat pair rather than a single isolated box.

func buildMvhdBox(timescale, duration uint32) []byte {
	payload := fullBoxPayload(0, be32(0)...) // creation time
	payload = append(payload, be32(0)...)    // modification time
	payload = append(payload, be32(timescale)...)
	payload = append(payload, be32(duration)...)
	return makeBox32("mvhd", payload)
}

func buildTkhdBox(width, height uint32) []byte {
	payload := make([]byte, 84)
	copy(payload[76:80], be32(width<<16))
	copy(payload[80:84], be32(height<<16))
	return makeBox32("tkhd", payload)
}

func buildSttsBox(sampleCount, sampleDelta uint32) []byte {
	payload := fullBoxPayload(0, be32(1)...)
	payload = append(payload, be32(sampleCount)...)
	payload = append(payload, be32(sampleDelta)...)
	return makeBox32("stts", payload)
}

func buildStcoBox(offsets []uint32) []byte {
	payload := fullBoxPayload(0, be32(uint32(len(offsets)))...)
	for _, o := range offsets {
		payload = append(payload, be32(o)...)
	}
	return makeBox32("stco", payload)
}

// buildStszBox writes the quirky layout this package's reader expects:
// flags, version, entry_count as three u32s, sizes from byte 12.
func buildStszBox(sizes []uint32) []byte {
	payload := append(be32(0), be32(0)...)
	payload = append(payload, be32(uint32(len(sizes)))...)
	for _, s := range sizes {
		payload = append(payload, be32(s)...)
	}
	return makeBox32("stsz", payload)
}

func buildStblBox(sampleCount, sampleDelta uint32, offsets []uint32, sizes []uint32) []byte {
	var content []byte
	content = append(content, buildSttsBox(sampleCount, sampleDelta)...)
	content = append(content, buildStcoBox(offsets)...)
	content = append(content, buildStszBox(sizes)...)
	return makeBox32("stbl", content)
}

func buildTrakBox(width, height uint32, sampleCount, sampleDelta uint32, offsets []uint32, sizes []uint32) []byte {
	tkhd := buildTkhdBox(width, height)
	stbl := buildStblBox(sampleCount, sampleDelta, offsets, sizes)
	minf := makeBox32("minf", stbl)
	mdia := makeBox32("mdia", minf)
	var content []byte
	content = append(content, tkhd...)
	content = append(content, mdia...)
	return makeBox32("trak", content)
}

// syntheticFile holds a minimal but structurally valid file: ftyp, mdat
// (before moov, so the rewriter accepts it), then moov with a video trak at
// ordinal 1 and a metadata trak at ordinal 3.
type syntheticFile struct {
	data      []byte
	mdatStart int
	mdatEnd   int
}

func buildSyntheticFile(mdatPayload []byte, timescale, duration uint32, videoW, videoH, videoSampleCount, videoSampleDelta uint32, metaOffsets []uint32, metaSizes []uint32) syntheticFile {
	ftyp := makeBox32("ftyp", []byte("isommp42"))
	mdat := makeBox32("mdat", mdatPayload)

	videoTrak := buildTrakBox(videoW, videoH, videoSampleCount, videoSampleDelta, nil, nil)
	fillerTrak := buildTrakBox(0, 0, 0, 0, nil, nil)
	metaTrak := buildTrakBox(0, 0, 0, 0, metaOffsets, metaSizes)

	mvhd := buildMvhdBox(timescale, duration)
	var moovContent []byte
	moovContent = append(moovContent, mvhd...)
	moovContent = append(moovContent, videoTrak...)
	moovContent = append(moovContent, fillerTrak...)
	moovContent = append(moovContent, metaTrak...)
	moov := makeBox32("moov", moovContent)

	var out []byte
	out = append(out, ftyp...)
	mdatStart := len(out)
	out = append(out, mdat...)
	mdatEnd := len(out)
	out = append(out, moov...)

	return syntheticFile{data: out, mdatStart: mdatStart, mdatEnd: mdatEnd}
}
