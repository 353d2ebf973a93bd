// Package correction implements the pinyin-correction session: a user opens
// it over the current raw input and AI transcription, confirms dictionary
// picks segment by segment, and on close gets a self-contained merge request
// to send to the text generator.
//
// The session is not safe for concurrent use; the IME engine owns it from a
// single goroutine.
package correction

import (
	"errors"
	"strings"
)

// State is the session state.
type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

var (
	ErrAlreadyOpen      = errors.New("correction session already open")
	ErrClosed           = errors.New("correction session is not open")
	ErrNoInput          = errors.New("enter pinyin before picking a candidate")
	ErrNothingToConfirm = errors.New("nothing to confirm")
	ErrNoCorrection     = errors.New("no correction applied")
)

// Segment is one confirmed (pinyin, text) substitution.
type Segment struct {
	Pinyin string `json:"pinyin" msgpack:"pinyin"`
	Text   string `json:"text" msgpack:"text"`
}

// MergeRequest is everything the generator needs to fold the confirmed
// segments back into the original transcription.
type MergeRequest struct {
	SessionID       uint64
	OriginalPinyin  string
	OriginalText    string
	CorrectedPinyin string
	CorrectedText   string
}

// Session is the correction state machine. The zero value is a closed session.
type Session struct {
	state    State
	id       uint64
	segments []Segment
	pending  *Segment
	input    string

	originalPinyin string
	originalText   string
}

// New returns a closed session.
func New() *Session {
	return &Session{}
}

// Enter opens the session, snapshotting the raw input and the current
// primary suggestion (empty if there is none yet). Calling Enter on an open
// session fails with ErrAlreadyOpen and keeps accumulated segments.
func (s *Session) Enter(rawInput, primary string) error {
	if s.state == Open {
		return ErrAlreadyOpen
	}
	s.state = Open
	s.id++
	s.originalPinyin = strings.TrimSpace(rawInput)
	s.originalText = primary
	s.segments = nil
	s.pending = nil
	s.input = ""
	return nil
}

// SetInput replaces the correction input field.
func (s *Session) SetInput(pinyin string) error {
	if s.state != Open {
		return ErrClosed
	}
	s.input = pinyin
	return nil
}

// Pick records text as the chosen-but-unconfirmed candidate for the current
// correction input, replacing any earlier pick.
func (s *Session) Pick(text string) error {
	if s.state != Open {
		return ErrClosed
	}
	pinyin := strings.TrimSpace(s.input)
	if pinyin == "" {
		return ErrNoInput
	}
	s.pending = &Segment{Pinyin: pinyin, Text: text}
	return nil
}

// Confirm appends the pending pick to the segments and clears the input field.
func (s *Session) Confirm() (Segment, error) {
	if s.state != Open {
		return Segment{}, ErrClosed
	}
	if s.pending == nil {
		return Segment{}, ErrNothingToConfirm
	}
	seg := *s.pending
	s.segments = append(s.segments, seg)
	s.pending = nil
	s.input = ""
	return seg, nil
}

// Exit closes the session. With confirmed segments and a non-empty original
// transcription it returns the merge request; with no segments it returns
// ErrNoCorrection. Segments exist but nothing was transcribed yet gives
// (nil, nil): there is nothing to merge into. An unconfirmed pick is dropped.
func (s *Session) Exit() (*MergeRequest, error) {
	if s.state != Open {
		return nil, ErrClosed
	}
	segments := s.segments
	req := &MergeRequest{
		SessionID:      s.id,
		OriginalPinyin: s.originalPinyin,
		OriginalText:   s.originalText,
	}

	s.state = Closed
	s.segments = nil
	s.pending = nil
	s.input = ""

	if len(segments) == 0 {
		return nil, ErrNoCorrection
	}
	if req.OriginalText == "" {
		return nil, nil
	}

	var pinyin, text strings.Builder
	for _, seg := range segments {
		pinyin.WriteString(seg.Pinyin)
		text.WriteString(seg.Text)
	}
	req.CorrectedPinyin = pinyin.String()
	req.CorrectedText = text.String()
	return req, nil
}

// ID identifies the most recently opened session.
func (s *Session) ID() uint64 { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.state }

// IsOpen reports whether the session is open.
func (s *Session) IsOpen() bool { return s.state == Open }

// Input returns the correction input field.
func (s *Session) Input() string { return s.input }

// OriginalPinyin returns the raw input snapshot taken on Enter.
func (s *Session) OriginalPinyin() string { return s.originalPinyin }

// OriginalText returns the primary suggestion snapshot taken on Enter.
func (s *Session) OriginalText() string { return s.originalText }

// Pending returns the unconfirmed pick, if any.
func (s *Session) Pending() (Segment, bool) {
	if s.pending == nil {
		return Segment{}, false
	}
	return *s.pending, true
}

// Segments returns a copy of the confirmed segments.
func (s *Session) Segments() []Segment {
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// Summary renders the confirmed segments as "西(xi) + 安(an)".
func (s *Session) Summary() string {
	parts := make([]string, len(s.segments))
	for i, seg := range s.segments {
		parts[i] = seg.Text + "(" + seg.Pinyin + ")"
	}
	return strings.Join(parts, " + ")
}

// CorrectedText concatenates the confirmed segment texts.
func (s *Session) CorrectedText() string {
	var b strings.Builder
	for _, seg := range s.segments {
		b.WriteString(seg.Text)
	}
	return b.String()
}
