package mp4

// readMdtaMetaHandler returns the handler_type of a meta box's hdlr child,
// and whether one was found at all. A meta box is only treated as "mdta
// flavoured" when its hdlr handler_type equals "mdta" (§4.6): meta boxes
// written by other tools are left untouched.
func readMdtaMetaHandler(buf []byte, meta Box) (handlerType [4]byte, ok bool, err error) {
	start, end := metaPayloadRange(buf, meta)
	hdlr, found, err := findChild(buf, start, end, boxTypeHdlr)
	if err != nil || !found {
		return handlerType, false, err
	}
	data := buf[hdlr.PayloadStart():hdlr.End()]
	if len(data) < 8 {
		return handlerType, false, nil
	}
	copy(handlerType[:], data[4:8])
	return handlerType, true, nil
}

// metaPayloadRange returns the child-search range for a meta box's payload.
// Whether meta carries a leading 4-byte FullBox version/flags field is
// handler-dependent in the wild (§1); this system detects it heuristically:
// if skipping the first 4 bytes lands on a box whose header parses cleanly,
// meta is treated as a FullBox, matching the mdta convention this system
// both reads and writes; otherwise children are searched from the payload
// start.
func metaPayloadRange(buf []byte, meta Box) (int, int) {
	start := meta.PayloadStart()
	end := int(meta.End())
	if end-start < 4 {
		return start, end
	}
	if _, err := readHeader(buf, start+4, end); err == nil {
		return start + 4, end
	}
	return start, end
}

// isMdtaMeta reports whether meta is an mdta-flavoured meta box, per the
// hdlr handler_type check in readMdtaMetaHandler.
func isMdtaMeta(buf []byte, meta Box) bool {
	ht, ok, err := readMdtaMetaHandler(buf, meta)
	if err != nil || !ok {
		return false
	}
	return string(ht[:]) == "mdta"
}
