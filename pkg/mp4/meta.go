package mp4

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// MetaKeyValue is one (namespace-qualified key, UTF-8 value) pair written
// into an mdta meta island (§3). Order matters: ilst numbering indexes into
// the keys box by position.
type MetaKeyValue struct {
	Key   string
	Value string
}

// Known mdta keys (§3), in the order the injected metadata key contract
// (§6) specifies they're written when present.
const (
	KeyAccuracyHorizontal = "com.apple.quicktime.location.accuracy.horizontal"
	KeyISO6709            = "com.apple.quicktime.location.ISO6709"
	KeyMake                = "com.apple.quicktime.make"
	KeyModel               = "com.apple.quicktime.model"
	KeySoftware            = "com.apple.quicktime.software"
	KeyCreationDate        = "com.apple.quicktime.creationdate"
)

// buildMdtaMeta constructs a complete meta box (§4.5): FullBox version/flags
// = 0, containing hdlr (handler_type "mdta"), keys (N entries) and ilst (N
// items numbered 1..N, each wrapping one data box). N must fit in a u32.
func buildMdtaMeta(pairs []MetaKeyValue) ([]byte, error) {
	if len(pairs) > 0xFFFFFFFF {
		return nil, errors.WithStack(ErrOverflow)
	}

	hdlr, err := buildHdlr()
	if err != nil {
		return nil, err
	}
	keys, err := buildKeys(pairs)
	if err != nil {
		return nil, err
	}
	ilst, err := buildIlst(pairs)
	if err != nil {
		return nil, err
	}

	var content bytes.Buffer
	content.Write([]byte{0, 0, 0, 0}) // meta FullBox version/flags
	content.Write(hdlr)
	content.Write(keys)
	content.Write(ilst)

	return buildBox("meta", content.Bytes())
}

// buildHdlr constructs the hdlr box declaring the "mdta" handler (§4.5).
func buildHdlr() ([]byte, error) {
	var content bytes.Buffer
	content.Write([]byte{0, 0, 0, 0})    // version/flags
	content.Write([]byte{0, 0, 0, 0})    // predefined
	content.WriteString("mdta")          // handler_type
	content.Write(make([]byte, 12))      // reserved
	content.WriteByte(0x00)              // name (empty, null-terminated)
	return buildBox("hdlr", content.Bytes())
}

// buildKeys constructs the keys box: one entry per pair, each
// u32 key_size (= 8 + len(utf8)), 4-byte namespace "mdta", utf8 bytes (§4.5).
func buildKeys(pairs []MetaKeyValue) ([]byte, error) {
	var content bytes.Buffer
	content.Write([]byte{0, 0, 0, 0}) // version/flags
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(pairs)))
	content.Write(countBuf[:])

	for _, p := range pairs {
		keyBytes := []byte(p.Key)
		size := 8 + len(keyBytes)
		if size > 0xFFFFFFFF {
			return nil, errors.WithStack(ErrOverflow)
		}
		var sizeBuf [4]byte
		binary.BigEndian.PutUint32(sizeBuf[:], uint32(size))
		content.Write(sizeBuf[:])
		content.WriteString("mdta")
		content.Write(keyBytes)
	}

	return buildBox("keys", content.Bytes())
}

// buildIlst constructs the ilst box: one item per pair, numbered 1..N, each
// item's 4-byte type being the big-endian u32 encoding of its index, wrapping
// exactly one data box (§4.5).
func buildIlst(pairs []MetaKeyValue) ([]byte, error) {
	var content bytes.Buffer
	for i, p := range pairs {
		dataBox, err := buildDataBox(p.Value)
		if err != nil {
			return nil, err
		}
		itemBox, err := buildBoxWithType(uint32(i+1), dataBox)
		if err != nil {
			return nil, err
		}
		content.Write(itemBox)
	}
	return buildBox("ilst", content.Bytes())
}

// buildDataBox constructs one data box: u32 type_set = 1 (UTF-8), u32
// locale = 0, followed by the UTF-8 value bytes (§4.5).
func buildDataBox(value string) ([]byte, error) {
	var content bytes.Buffer
	content.Write([]byte{0, 0, 0, 1}) // type_set = UTF-8
	content.Write([]byte{0, 0, 0, 0}) // locale
	content.WriteString(value)
	return buildBox("data", content.Bytes())
}

// buildBox wraps content in a box header of the given 4-character type,
// promoting to a 64-bit extended size (size field = 1, 8-byte size follows)
// when the total size would not fit in 32 bits (§4.5). Unsigned overflow
// beyond what a 64-bit size can express is a fatal ErrOverflow.
func buildBox(boxType string, content []byte) ([]byte, error) {
	var t [4]byte
	copy(t[:], boxType)
	return buildBoxRaw(t, content)
}

// buildBoxWithType wraps content in a box header whose 4-byte type is the
// big-endian encoding of the given u32 (used for ilst item indices, §4.5).
func buildBoxWithType(rawType uint32, content []byte) ([]byte, error) {
	var t [4]byte
	binary.BigEndian.PutUint32(t[:], rawType)
	return buildBoxRaw(t, content)
}

func buildBoxRaw(t [4]byte, content []byte) ([]byte, error) {
	const headerLen32 = 8
	const headerLen64 = 16

	total64 := uint64(headerLen32) + uint64(len(content))

	var buf bytes.Buffer
	if total64 > 0xFFFFFFFF {
		total64 = uint64(headerLen64) + uint64(len(content))
		if total64 < uint64(headerLen64) {
			return nil, errors.WithStack(ErrOverflow)
		}
		var sizeBuf [4]byte
		binary.BigEndian.PutUint32(sizeBuf[:], 1)
		buf.Write(sizeBuf[:])
		buf.Write(t[:])
		var extBuf [8]byte
		binary.BigEndian.PutUint64(extBuf[:], total64)
		buf.Write(extBuf[:])
	} else {
		var sizeBuf [4]byte
		binary.BigEndian.PutUint32(sizeBuf[:], uint32(total64))
		buf.Write(sizeBuf[:])
		buf.Write(t[:])
	}
	buf.Write(content)

	return buf.Bytes(), nil
}

// ReadMdtaMeta parses an mdta-flavoured meta box back into its ordered
// (key, value) pairs, the inverse of buildMdtaMeta. Used to verify the
// round-trip invariant (§8): writing N keys then parsing the resulting meta
// back yields the same ordered N-pair list.
func ReadMdtaMeta(buf []byte, meta Box) ([]MetaKeyValue, error) {
	start, end := metaPayloadRange(buf, meta)

	keysBox, ok, err := findChild(buf, start, end, boxTypeKeys)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &MissingBoxError{Type: boxTypeKeys}
	}
	keys, err := readKeys(buf, keysBox)
	if err != nil {
		return nil, err
	}

	ilstBox, ok, err := findChild(buf, start, end, boxTypeIlst)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &MissingBoxError{Type: boxTypeIlst}
	}
	values, err := readIlst(buf, ilstBox, len(keys))
	if err != nil {
		return nil, err
	}

	pairs := make([]MetaKeyValue, len(keys))
	for i, k := range keys {
		pairs[i] = MetaKeyValue{Key: k, Value: values[i]}
	}
	return pairs, nil
}

// readKeys decodes the keys box into its ordered key strings.
func readKeys(buf []byte, box Box) ([]string, error) {
	data := buf[box.PayloadStart():box.End()]
	if len(data) < 8 {
		return nil, &TruncatedTableError{Which: "keys", Expected: 8, Actual: len(data)}
	}
	count := int(binary.BigEndian.Uint32(data[4:8]))
	pos := 8
	keys := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if len(data)-pos < 8 {
			return nil, &TruncatedTableError{Which: "keys", Expected: pos + 8, Actual: len(data)}
		}
		size := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		if size < 8 || pos+size > len(data) {
			return nil, &TruncatedTableError{Which: "keys", Expected: pos + size, Actual: len(data)}
		}
		keys = append(keys, string(data[pos+8:pos+size]))
		pos += size
	}
	return keys, nil
}

// readIlst decodes the ilst box's items (indexed 1..N) into their values,
// returned in key-index order. n is the expected item count (len(keys)).
func readIlst(buf []byte, box Box, n int) ([]string, error) {
	start, end := box.PayloadStart(), int(box.End())
	values := make([]string, n)

	err := iterBoxes(buf, start, end, func(b Box) (bool, error) {
		idx := int(binary.BigEndian.Uint32(b.Type[:]))
		dataBox, ok, err := findChild(buf, b.PayloadStart(), int(b.End()), boxTypeData)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, errors.WithStack(&MissingBoxError{Type: boxTypeData})
		}
		payload := buf[dataBox.PayloadStart():dataBox.End()]
		if len(payload) < 8 {
			return false, &TruncatedTableError{Which: "data", Expected: 8, Actual: len(payload)}
		}
		if idx >= 1 && idx <= n {
			values[idx-1] = string(payload[8:])
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}
