package mp4

import "github.com/pkg/errors"

// findChild returns the first direct child of type t within a container's
// payload range [start, end), or ok=false if none exists.
func findChild(buf []byte, start, end int, t BoxType) (Box, bool, error) {
	return findTop(buf, start, end, t)
}

// findChildren returns every direct child of type t within [start, end), in
// file order.
func findChildren(buf []byte, start, end int, t BoxType) ([]Box, error) {
	var out []Box
	err := iterBoxes(buf, start, end, func(b Box) (bool, error) {
		if b.Type == t {
			out = append(out, b)
		}
		return true, nil
	})
	return out, err
}

// findTrak locates the trak box at the given 1-based ordinal (file order,
// counting only trak children of moov). Track selection is ordinal, not an
// inherent property of the format: which trak is "video" and which is
// "metadata" is purely a matter of configured policy (§6).
func findTrak(buf []byte, moovStart, moovEnd int, ordinal int) (Box, error) {
	if ordinal < 1 {
		return Box{}, errors.Errorf("mp4: trak ordinal must be >= 1, got %d", ordinal)
	}
	var found Box
	var ok bool
	count := 0
	err := iterBoxes(buf, moovStart, moovEnd, func(b Box) (bool, error) {
		if b.Type != boxTypeTrak {
			return true, nil
		}
		count++
		if count == ordinal {
			found = b
			ok = true
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return Box{}, err
	}
	if !ok {
		return Box{}, errors.Errorf("mp4: no trak at ordinal %d (found %d)", ordinal, count)
	}
	return found, nil
}

// descendPath walks a fixed chain of single-child containers starting at
// parent's payload, e.g. mdia/minf/stbl, returning the final box found.
func descendPath(buf []byte, parent Box, path ...BoxType) (Box, error) {
	cur := parent
	for _, t := range path {
		start := cur.PayloadStart()
		end := int(cur.End())
		child, ok, err := findChild(buf, start, end, t)
		if err != nil {
			return Box{}, err
		}
		if !ok {
			return Box{}, errors.WithStack(&MissingBoxError{Type: t})
		}
		cur = child
	}
	return cur, nil
}

// stblFor locates the stbl box of the trak at the given ordinal, descending
// trak/mdia/minf/stbl.
func stblFor(buf []byte, moovStart, moovEnd int, trakOrdinal int) (Box, error) {
	trak, err := findTrak(buf, moovStart, moovEnd, trakOrdinal)
	if err != nil {
		return Box{}, err
	}
	return descendPath(buf, trak, boxTypeMdia, boxTypeMinf, boxTypeStbl)
}
