package ime

import (
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/correction"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/dictionary"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/suggestion"
)

// StatusKind classifies the status line.
type StatusKind string

const (
	StatusNone    StatusKind = ""
	StatusInfo    StatusKind = "info"
	StatusLoading StatusKind = "loading"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Status is the user-facing message for the last operation.
type Status struct {
	Kind    StatusKind `msgpack:"kind"`
	Message string     `msgpack:"message"`
}

// Suggestion is one slot of the suggestion set.
type Suggestion struct {
	Slot     string `msgpack:"slot"`
	Text     string `msgpack:"text"`
	State    string `msgpack:"state"`
	Selected bool   `msgpack:"selected"`
}

// CandidatePage is the visible page of dictionary candidates.
type CandidatePage struct {
	Query      string             `msgpack:"query"`
	Page       int                `msgpack:"page"`
	TotalPages int                `msgpack:"total_pages"`
	Total      int                `msgpack:"total"`
	Entries    []dictionary.Entry `msgpack:"entries"`
}

// Correction is the correction-session view.
type Correction struct {
	Open           bool                 `msgpack:"open"`
	Input          string               `msgpack:"input"`
	Pending        *correction.Segment  `msgpack:"pending"`
	Segments       []correction.Segment `msgpack:"segments"`
	Summary        string               `msgpack:"summary"`
	Corrected      string               `msgpack:"corrected"`
	OriginalPinyin string               `msgpack:"original_pinyin"`
	OriginalText   string               `msgpack:"original_text"`
}

// Snapshot is an immutable copy of the engine state.
type Snapshot struct {
	Input       string        `msgpack:"input"`
	Converting  bool          `msgpack:"converting"`
	Suggestions []Suggestion  `msgpack:"suggestions"`
	Selected    int           `msgpack:"selected"`
	Output      string        `msgpack:"output"`
	Correction  Correction    `msgpack:"correction"`
	Candidates  CandidatePage `msgpack:"candidates"`
	Status      Status        `msgpack:"status"`
}

// Primary returns the primary suggestion text, or "".
func (s Snapshot) Primary() string {
	if len(s.Suggestions) == 0 {
		return ""
	}
	return s.Suggestions[suggestion.Primary].Text
}

func (e *Engine) snapshot() Snapshot {
	snap := Snapshot{
		Input:      e.input,
		Converting: e.converting,
		Selected:   int(e.suggestions.Selected()),
		Output:     e.suggestions.Output(),
		Status:     e.status,
		Candidates: CandidatePage{
			Query:      e.pager.Query(),
			Page:       e.pager.Index(),
			TotalPages: e.pager.TotalPages(),
			Total:      e.pager.Total(),
			Entries:    e.pager.Page(),
		},
	}

	for _, v := range e.suggestions.Slots() {
		snap.Suggestions = append(snap.Suggestions, Suggestion{
			Slot:     v.Slot.String(),
			Text:     v.Text,
			State:    v.State.String(),
			Selected: v.Slot == e.suggestions.Selected(),
		})
	}

	s := e.session
	snap.Correction = Correction{
		Open:      s.IsOpen(),
		Input:     s.Input(),
		Segments:  s.Segments(),
		Summary:   s.Summary(),
		Corrected: s.CorrectedText(),
	}
	if s.IsOpen() {
		snap.Correction.OriginalPinyin = s.OriginalPinyin()
		snap.Correction.OriginalText = s.OriginalText()
	}
	if p, ok := s.Pending(); ok {
		snap.Correction.Pending = &p
	}
	return snap
}
