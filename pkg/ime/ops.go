package ime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/YanaYuan/chinese-pinyin-ime/pkg/correction"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/generate"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/suggestion"
	"github.com/charmbracelet/log"
)

// Input sets the raw pinyin input. Conversion runs once the input has been
// stable for the debounce delay; empty input cancels it and clears the
// suggestions. While correction mode is open the dictionary candidates
// follow the main input too.
func (e *Engine) Input(text string) (Snapshot, error) {
	return e.do(func() error {
		e.input = text
		pinyin := strings.TrimSpace(text)

		if e.session.IsOpen() {
			if pinyin == "" {
				e.pager.Reset()
			} else {
				e.pager.SetQuery(pinyin)
			}
		}

		if pinyin == "" {
			e.cancelConversion()
			e.suggestions.Clear()
			e.setStatus(StatusNone, "")
			return nil
		}
		e.debouncer.Schedule(func(id uint64) {
			e.post(func() { e.debouncedConvert(id) })
		})
		return nil
	})
}

// ConvertNow skips the debounce delay and converts the current input.
func (e *Engine) ConvertNow() (Snapshot, error) {
	return e.do(func() error {
		e.debouncer.Cancel()
		pinyin := strings.TrimSpace(e.input)
		if pinyin == "" {
			e.setStatus(StatusError, "enter pinyin first")
			return &SessionError{Op: "convert", Err: correction.ErrNoInput}
		}
		e.requestConversion(pinyin)
		return nil
	})
}

// CorrectionInput sets the correction-mode pinyin field and refreshes the
// candidate list.
func (e *Engine) CorrectionInput(text string) (Snapshot, error) {
	return e.do(func() error {
		if err := e.session.SetInput(text); err != nil {
			return e.reject("correction_input", err)
		}
		if pinyin := strings.TrimSpace(text); pinyin != "" {
			e.pager.SetQuery(pinyin)
		} else {
			e.pager.Reset()
		}
		return nil
	})
}

// NextPage shows the following page of candidates.
func (e *Engine) NextPage() (Snapshot, error) {
	return e.do(func() error {
		if err := e.pager.Next(); err != nil {
			return e.reject("next_page", err)
		}
		e.setStatus(StatusInfo, fmt.Sprintf("page %d/%d", e.pager.Index()+1, e.pager.TotalPages()))
		return nil
	})
}

// PrevPage shows the previous page of candidates.
func (e *Engine) PrevPage() (Snapshot, error) {
	return e.do(func() error {
		if err := e.pager.Prev(); err != nil {
			return e.reject("prev_page", err)
		}
		e.setStatus(StatusInfo, fmt.Sprintf("page %d/%d", e.pager.Index()+1, e.pager.TotalPages()))
		return nil
	})
}

// PickCandidate picks the candidate at 0-based slot on the visible page as
// the pending correction. It replaces any earlier unconfirmed pick.
func (e *Engine) PickCandidate(slot int) (Snapshot, error) {
	return e.do(func() error {
		if !e.session.IsOpen() {
			return e.reject("pick", correction.ErrClosed)
		}
		entry, err := e.pager.Select(slot)
		if err != nil {
			return e.reject("pick", err)
		}
		if err := e.session.Pick(entry.Text); err != nil {
			return e.reject("pick", err)
		}
		e.setStatus(StatusInfo, fmt.Sprintf("picked %s, confirm to apply", entry.Text))
		return nil
	})
}

// ConfirmSegment appends the pending pick to the correction segments.
func (e *Engine) ConfirmSegment() (Snapshot, error) {
	return e.do(func() error {
		seg, err := e.session.Confirm()
		if err != nil {
			return e.reject("confirm_segment", err)
		}
		e.pager.Reset()
		e.setStatus(StatusSuccess, fmt.Sprintf("confirmed %s(%s)", seg.Text, seg.Pinyin))
		return nil
	})
}

// ToggleCorrection opens correction mode, or closes it and merges the
// confirmed segments into the primary suggestion.
func (e *Engine) ToggleCorrection() (Snapshot, error) {
	return e.do(func() error {
		if !e.session.IsOpen() {
			if err := e.session.Enter(e.input, e.suggestions.Primary()); err != nil {
				return e.reject("toggle", err)
			}
			e.pager.Reset()
			e.setStatus(StatusInfo, "correction mode")
			return nil
		}

		e.pager.Reset()
		req, err := e.session.Exit()
		switch {
		case errors.Is(err, correction.ErrNoCorrection):
			e.setStatus(StatusError, err.Error())
			return nil
		case err != nil:
			return e.reject("toggle", err)
		case req == nil:
			e.setStatus(StatusNone, "")
			return nil
		}
		e.requestMerge(req)
		return nil
	})
}

// Cycle moves the suggestion selection, generating the target variant on
// first visit. It does nothing while correction mode is open.
func (e *Engine) Cycle() (Snapshot, error) {
	return e.do(func() error {
		if e.session.IsOpen() {
			return nil
		}
		_, demand := e.suggestions.Cycle()
		if demand != nil {
			e.requestVariant(demand)
		}
		return nil
	})
}

// ConfirmSuggestion commits the selected suggestion to the output and clears
// the input.
func (e *Engine) ConfirmSuggestion() (Snapshot, error) {
	return e.do(func() error {
		text, err := e.suggestions.Confirm()
		if err != nil {
			return e.reject("confirm", err)
		}
		e.input = ""
		e.cancelConversion()
		e.setStatus(StatusSuccess, "committed "+text)
		return nil
	})
}

// Clear empties the input, the suggestions and the output.
func (e *Engine) Clear() (Snapshot, error) {
	return e.do(func() error {
		e.input = ""
		e.cancelConversion()
		e.suggestions.Clear()
		e.suggestions.ClearOutput()
		if e.session.IsOpen() {
			e.pager.Reset()
		}
		e.setStatus(StatusNone, "")
		return nil
	})
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() (Snapshot, error) {
	return e.do(func() error { return nil })
}

// reject reports an invalid transition on the status line and wraps it.
func (e *Engine) reject(op string, err error) error {
	e.setStatus(StatusError, err.Error())
	return &SessionError{Op: op, Err: err}
}

func (e *Engine) cancelConversion() {
	e.debouncer.Cancel()
	e.convSeq++
	e.converting = false
}

func (e *Engine) debouncedConvert(id uint64) {
	if id != e.debouncer.Current() {
		return
	}
	if pinyin := strings.TrimSpace(e.input); pinyin != "" {
		e.requestConversion(pinyin)
	}
}

func (e *Engine) requestConversion(pinyin string) {
	e.convSeq++
	seq := e.convSeq
	e.converting = true
	e.setStatus(StatusLoading, "converting...")
	log.Debugf("Converting %q (request %d)", pinyin, seq)

	e.spawn(generate.ConvertRequest(pinyin), func(text string, err error) {
		if seq != e.convSeq || strings.TrimSpace(e.input) != pinyin {
			log.Debugf("Dropping stale conversion %d", seq)
			return
		}
		e.converting = false
		if err != nil {
			e.setStatus(StatusError, generationMessage("conversion", err))
			return
		}
		e.suggestions.SetPrimary(text)
		e.setStatus(StatusSuccess, "converted")
	})
}

func (e *Engine) requestVariant(d *suggestion.Demand) {
	var req generate.Request
	if d.Slot == suggestion.Colloquial {
		req = generate.ColloquialRequest(d.Source)
	} else {
		req = generate.ExpandRequest(d.Source)
	}
	e.setStatus(StatusLoading, "generating "+d.Slot.String()+"...")

	e.spawn(req, func(text string, err error) {
		if err != nil {
			if e.suggestions.Fail(d.Slot, d.Generation) == nil {
				e.setStatus(StatusError, generationMessage(d.Slot.String(), err))
			}
			return
		}
		switch ferr := e.suggestions.Fill(d.Slot, d.Generation, text); {
		case ferr == nil:
			e.setStatus(StatusSuccess, d.Slot.String()+" ready")
		case errors.Is(ferr, suggestion.ErrUnchanged):
			e.setStatus(StatusInfo, "no "+d.Slot.String()+" variant")
		default:
			log.Debugf("Dropping %s result: %v", d.Slot, ferr)
		}
	})
}

func (e *Engine) requestMerge(req *correction.MergeRequest) {
	generation := e.suggestions.Generation()
	sessionID := req.SessionID
	e.setStatus(StatusLoading, "correcting...")

	e.spawn(generate.MergeRequest(generate.Merge{
		OriginalPinyin:  req.OriginalPinyin,
		OriginalText:    req.OriginalText,
		CorrectedPinyin: req.CorrectedPinyin,
		CorrectedText:   req.CorrectedText,
	}), func(text string, err error) {
		if generation != e.suggestions.Generation() || sessionID != e.session.ID() || e.session.IsOpen() {
			log.Debugf("Dropping stale merge for session %d", sessionID)
			return
		}
		if err != nil {
			e.setStatus(StatusError, generationMessage("correction", err))
			return
		}
		e.suggestions.ReplacePrimary(text)
		e.setStatus(StatusSuccess, "corrected")
	})
}

func generationMessage(what string, err error) string {
	if errors.Is(err, generate.ErrConfigurationMissing) {
		return what + " unavailable: generation backend not configured, dictionary correction still works"
	}
	return what + " failed: " + err.Error()
}
