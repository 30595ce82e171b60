package protocol

// LineReader frames a byte stream into protocol lines. It tolerates CR
// before LF, drops lines longer than MaxLineLen and resynchronizes on the
// next newline, mirroring the tracker's own framing rules.
type LineReader struct {
	buf      [MaxLineLen + 1]byte
	n        int
	overflow bool
}

// Feed consumes one byte. When the byte completes a well-formed line the
// parsed event is returned; otherwise the event is nil.
func (r *LineReader) Feed(b byte) Event {
	switch b {
	case '\r':
		return nil
	case '\n':
		if r.overflow {
			r.overflow = false
			r.n = 0
			return nil
		}
		line := string(r.buf[:r.n])
		r.n = 0
		return ParseLine(line)
	default:
		if r.overflow {
			return nil
		}
		if r.n >= MaxLineLen {
			// too long: discard everything up to the next newline
			r.overflow = true
			r.n = 0
			return nil
		}
		r.buf[r.n] = b
		r.n++
		return nil
	}
}

// FeedAll consumes a chunk of bytes and returns the events completed by it
func (r *LineReader) FeedAll(p []byte) []Event {
	var events []Event
	for _, b := range p {
		if ev := r.Feed(b); ev != nil {
			events = append(events, ev)
		}
	}
	return events
}
