package mp4

import (
	"bytes"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RewriteBytes implements the moov Rewriter (§4.6) as a pure function of its
// inputs: given a complete source file's bytes and the ordered metadata
// pairs to inject, it returns the complete rewritten file's bytes. It never
// touches the filesystem; see WriteFile for the caller-facing atomic-write
// wrapper §5 asks for.
//
// Preconditions: moov and mdat must both be present as top-level boxes, and
// moov must follow mdat (faststart layouts are rejected, since rewriting
// moov there would require recomputing every stco/co64 entry into mdat,
// which this writer does not do).
func RewriteBytes(src []byte, pairs []MetaKeyValue) ([]byte, error) {
	end := len(src)

	moovBox, ok, err := findTop(src, 0, end, boxTypeMoov)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.WithStack(ErrMissingMoov)
	}

	mdatBox, ok, err := findTop(src, 0, end, boxTypeMdat)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.WithStack(ErrMissingMdat)
	}

	if moovBox.Start < mdatBox.Start {
		return nil, errors.WithStack(ErrFaststartUnsupported)
	}

	newMoov, err := rebuildMoov(src, moovBox, pairs)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(src)-int(moovBox.TotalSize)+len(newMoov))
	out = append(out, src[:moovBox.Start]...)
	out = append(out, newMoov...)
	out = append(out, src[moovBox.End():]...)
	return out, nil
}

// rebuildMoov implements steps 1-5 of §4.6's procedure: enumerate moov's
// direct children, drop any direct mdta-flavoured meta, rebuild udta with
// the new mdta meta appended, and re-wrap the result as a moov box.
func rebuildMoov(src []byte, moov Box, pairs []MetaKeyValue) ([]byte, error) {
	start, end := moov.PayloadStart(), int(moov.End())

	var preserved [][]byte
	var udtaBox Box
	var haveUdta bool

	err := iterBoxes(src, start, end, func(b Box) (bool, error) {
		switch {
		case b.Type == boxTypeMeta && isMdtaMeta(src, b):
			// Drop: non-mdta meta is preserved, mdta meta is replaced below.
		case b.Type == boxTypeUdta:
			udtaBox = b
			haveUdta = true
		default:
			preserved = append(preserved, append([]byte(nil), src[b.Start:b.End()]...))
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	newUdta, err := rebuildUdta(src, udtaBox, haveUdta, pairs)
	if err != nil {
		return nil, err
	}

	var content bytes.Buffer
	for _, child := range preserved {
		content.Write(child)
	}
	content.Write(newUdta)

	return buildBox("moov", content.Bytes())
}

// rebuildUdta implements step 3-4 of §4.6: within udta's payload, drop any
// direct mdta-flavoured meta child, preserve every other child in original
// order, then append a freshly built mdta meta box.
func rebuildUdta(src []byte, udta Box, haveUdta bool, pairs []MetaKeyValue) ([]byte, error) {
	var preserved [][]byte

	if haveUdta {
		start, end := udta.PayloadStart(), int(udta.End())
		err := iterBoxes(src, start, end, func(b Box) (bool, error) {
			if b.Type == boxTypeMeta && isMdtaMeta(src, b) {
				return true, nil
			}
			preserved = append(preserved, append([]byte(nil), src[b.Start:b.End()]...))
			return true, nil
		})
		if err != nil {
			return nil, err
		}
	}

	newMeta, err := buildMdtaMeta(pairs)
	if err != nil {
		return nil, err
	}

	var content bytes.Buffer
	for _, child := range preserved {
		content.Write(child)
	}
	content.Write(newMeta)

	return buildBox("udta", content.Bytes())
}

// WriteFile rewrites srcPath's mdta metadata and atomically publishes the
// result to destPath: the new content is written to a uniquely-named
// temporary file adjacent to destPath and then renamed into place, so a
// reader never observes a partially-written destination (§5). The temporary
// file is removed if anything fails before the rename.
func WriteFile(srcPath, destPath string, pairs []MetaKeyValue) error {
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return errors.Wrapf(err, "mp4: reading %s", srcPath)
	}

	out, err := RewriteBytes(src, pairs)
	if err != nil {
		return err
	}

	tmpPath := destPath + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmpPath, out, 0o600); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "mp4: writing temp file %s", tmpPath)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "mp4: renaming %s to %s", tmpPath, destPath)
	}
	return nil
}
