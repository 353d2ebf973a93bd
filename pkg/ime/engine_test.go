package ime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/YanaYuan/chinese-pinyin-ime/pkg/candidate"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/correction"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/dictionary"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/generate"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/generate/mock"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/suggestion"
	"github.com/charmbracelet/log"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var testEntries = []dictionary.Entry{
	{Text: "王", Pinyin: "wang", Frequency: 100},
	{Text: "汪", Pinyin: "wang", Frequency: 50},
	{Text: "小", Pinyin: "xiao", Frequency: 100},
	{Text: "晓", Pinyin: "xiao", Frequency: 40},
	{Text: "你", Pinyin: "ni", Frequency: 90},
	{Text: "你好", Pinyin: "ni hao", Frequency: 100},
}

// replies answers each request kind with a fixed text.
type replies struct {
	convert, colloquial, expand, merge string
}

func isMerge(req generate.Request) bool {
	return strings.Contains(req.Messages[0].Content, "纠错")
}

func (r replies) answer(_ context.Context, req generate.Request) (string, error) {
	switch {
	case isMerge(req):
		return r.merge, nil
	case req.MaxTokens == 100:
		return r.colloquial, nil
	case req.MaxTokens == 80:
		return r.expand, nil
	default:
		return r.convert, nil
	}
}

func newTestEngine(t *testing.T, gen generate.Generator, entries ...dictionary.Entry) *Engine {
	t.Helper()
	if len(entries) == 0 {
		entries = testEntries
	}
	matcher := candidate.NewMatcher(dictionary.NewStore(entries))
	// A long debounce keeps timers out of the way; tests convert with ConvertNow.
	e := New(matcher, gen, Config{Debounce: time.Hour})
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// must returns a checker for engine calls: must(t)(e.Snapshot()).
func must(t *testing.T) func(Snapshot, error) Snapshot {
	return func(snap Snapshot, err error) Snapshot {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return snap
	}
}

func settle(t *testing.T, e *Engine) Snapshot {
	t.Helper()
	e.WaitIdle()
	return must(t)(e.Snapshot())
}

func convert(t *testing.T, e *Engine, pinyin string) Snapshot {
	t.Helper()
	must(t)(e.Input(pinyin))
	must(t)(e.ConvertNow())
	return settle(t, e)
}

func waitFor(t *testing.T, e *Engine, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := must(t)(e.Snapshot())
		if cond(snap) {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
	return Snapshot{}
}

func TestConvertAndConfirm(t *testing.T) {
	g := mock.New()
	g.Func = replies{convert: "你好"}.answer
	e := newTestEngine(t, g)

	snap := convert(t, e, "ni hao")
	if snap.Primary() != "你好" || snap.Status.Kind != StatusSuccess || snap.Converting {
		t.Fatalf("after conversion: %+v", snap)
	}
	if !strings.Contains(g.Calls()[0].Messages[1].Content, "ni hao") {
		t.Errorf("conversion prompt = %q", g.Calls()[0].Messages[1].Content)
	}

	snap = must(t)(e.ConfirmSuggestion())
	if snap.Output != "你好" || snap.Input != "" || snap.Primary() != "" {
		t.Errorf("after confirm: output=%q input=%q primary=%q", snap.Output, snap.Input, snap.Primary())
	}

	snap = must(t)(e.Clear())
	if snap.Output != "" {
		t.Errorf("Clear left output %q", snap.Output)
	}
}

func TestDebouncedConversion(t *testing.T) {
	g := mock.New()
	g.Func = replies{convert: "你好"}.answer
	matcher := candidate.NewMatcher(dictionary.NewStore(testEntries))
	e := New(matcher, g, Config{Debounce: 50 * time.Millisecond})
	t.Cleanup(func() { _ = e.Close() })

	for _, in := range []string{"n", "ni", "ni h", "ni hao"} {
		must(t)(e.Input(in))
	}
	waitFor(t, e, func(s Snapshot) bool { return s.Primary() != "" })
	e.WaitIdle()

	calls := g.Calls()
	if len(calls) != 1 {
		t.Fatalf("generator called %d times, want 1", len(calls))
	}
	if !strings.Contains(calls[0].Messages[1].Content, "\"ni hao\"") {
		t.Errorf("converted the wrong input: %q", calls[0].Messages[1].Content)
	}
}

func TestEmptyInputCancelsConversion(t *testing.T) {
	g := mock.New()
	g.Func = replies{convert: "你"}.answer
	matcher := candidate.NewMatcher(dictionary.NewStore(testEntries))
	e := New(matcher, g, Config{Debounce: 20 * time.Millisecond})
	t.Cleanup(func() { _ = e.Close() })

	must(t)(e.Input("ni"))
	snap := must(t)(e.Input("   "))
	if snap.Primary() != "" {
		t.Errorf("suggestions not cleared: %+v", snap.Suggestions)
	}
	time.Sleep(100 * time.Millisecond)
	if n := g.CallCount(); n != 0 {
		t.Errorf("cancelled conversion still ran %d times", n)
	}
}

func TestStaleConversionDropped(t *testing.T) {
	g := mock.New(mock.Response{Text: "你"})
	g.Block = make(chan struct{})
	e := newTestEngine(t, g)

	must(t)(e.Input("ni"))
	must(t)(e.ConvertNow())
	must(t)(e.Input("wo"))
	close(g.Block)

	snap := settle(t, e)
	if snap.Primary() != "" {
		t.Errorf("stale conversion applied: primary %q", snap.Primary())
	}
}

func TestWaitIdleWaitsForBlockedGeneration(t *testing.T) {
	g := mock.New(mock.Response{Text: "你"})
	g.Block = make(chan struct{})
	e := newTestEngine(t, g)

	idle := make(chan struct{})
	go func() {
		e.WaitIdle()
		e.WaitIdle()
		close(idle)
	}()
	must(t)(e.Input("ni"))
	must(t)(e.ConvertNow())

	waiting := make(chan struct{})
	go func() {
		e.WaitIdle()
		close(waiting)
	}()
	select {
	case <-waiting:
		t.Fatal("WaitIdle returned while a conversion was blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(g.Block)
	select {
	case <-waiting:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitIdle did not return after the conversion finished")
	}
	<-idle
	if snap := must(t)(e.Snapshot()); snap.Primary() != "你" {
		t.Errorf("primary = %q, want 你", snap.Primary())
	}
}

func TestWaitIdleAfterClose(t *testing.T) {
	e := newTestEngine(t, mock.New())
	_ = e.Close()
	done := make(chan struct{})
	go func() {
		e.WaitIdle()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitIdle blocked on a closed engine")
	}
}

func TestConversionFailureKeepsPrimary(t *testing.T) {
	g := mock.New(
		mock.Response{Text: "你"},
		mock.Response{Err: generate.Errorf(generate.ErrUpstreamFailure, 503, "unavailable")},
	)
	e := newTestEngine(t, g)

	convert(t, e, "ni")
	snap := convert(t, e, "nihao")
	if snap.Primary() != "你" {
		t.Errorf("primary = %q after failed conversion, want 你", snap.Primary())
	}
	if snap.Status.Kind != StatusError || !strings.Contains(snap.Status.Message, "503") {
		t.Errorf("status = %+v", snap.Status)
	}
}

func TestUnconfiguredGenerator(t *testing.T) {
	e := newTestEngine(t, nil)

	snap := convert(t, e, "ni")
	if snap.Status.Kind != StatusError || !strings.Contains(snap.Status.Message, "not configured") {
		t.Errorf("status = %+v", snap.Status)
	}

	// Dictionary correction keeps working.
	must(t)(e.ToggleCorrection())
	snap = must(t)(e.CorrectionInput("ni"))
	if snap.Candidates.Total != 2 || snap.Candidates.Entries[0].Text != "你" {
		t.Errorf("candidates = %+v", snap.Candidates)
	}
}

func TestCorrectionMerge(t *testing.T) {
	g := mock.New()
	g.Func = replies{convert: "王小明", merge: "汪晓明"}.answer
	e := newTestEngine(t, g)

	convert(t, e, "wang xiao ming")
	snap := must(t)(e.ToggleCorrection())
	if !snap.Correction.Open || snap.Correction.OriginalText != "王小明" {
		t.Fatalf("correction view = %+v", snap.Correction)
	}

	for _, step := range []struct {
		pinyin string
		slot   int
		want   string
	}{
		{"wang", 1, "汪"},
		{"xiao", 1, "晓"},
	} {
		snap = must(t)(e.CorrectionInput(step.pinyin))
		if snap.Candidates.Total != 2 {
			t.Fatalf("candidates for %s = %+v", step.pinyin, snap.Candidates)
		}
		snap = must(t)(e.PickCandidate(step.slot))
		if snap.Correction.Pending == nil || snap.Correction.Pending.Text != step.want {
			t.Fatalf("pending = %+v, want %s", snap.Correction.Pending, step.want)
		}
		snap = must(t)(e.ConfirmSegment())
		if snap.Correction.Input != "" {
			t.Errorf("correction input not cleared: %q", snap.Correction.Input)
		}
	}
	if snap.Correction.Summary != "汪(wang) + 晓(xiao)" {
		t.Errorf("summary = %q", snap.Correction.Summary)
	}
	if snap.Correction.Corrected != "汪晓" {
		t.Errorf("corrected = %q, want 汪晓", snap.Correction.Corrected)
	}

	snap = must(t)(e.ToggleCorrection())
	if snap.Correction.Open || snap.Status.Message != "correcting..." {
		t.Errorf("after exit: open=%v status=%+v", snap.Correction.Open, snap.Status)
	}

	snap = settle(t, e)
	if snap.Primary() != "汪晓明" || snap.Status.Message != "corrected" {
		t.Errorf("after merge: primary=%q status=%+v", snap.Primary(), snap.Status)
	}

	calls := g.Calls()
	prompt := calls[len(calls)-1].Messages[1].Content
	for _, want := range []string{"拼音：wang xiao ming", "AI转换：王小明", "拼音片段：wangxiao", "用户选择：汪晓"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("merge prompt missing %q", want)
		}
	}
}

func TestMergeDroppedAfterNewConversion(t *testing.T) {
	release := make(chan struct{})
	answers := replies{convert: "王", merge: "汪"}
	var converted atomic.Int32
	g := mock.New()
	g.Func = func(ctx context.Context, req generate.Request) (string, error) {
		if isMerge(req) {
			select {
			case <-release:
			case <-ctx.Done():
				return "", ctx.Err()
			}
			return answers.merge, nil
		}
		if converted.Add(1) > 1 {
			return "我", nil
		}
		return answers.convert, nil
	}
	e := newTestEngine(t, g)

	convert(t, e, "wang")
	must(t)(e.ToggleCorrection())
	must(t)(e.CorrectionInput("wang"))
	must(t)(e.PickCandidate(1))
	must(t)(e.ConfirmSegment())
	must(t)(e.ToggleCorrection())

	must(t)(e.Input("wo"))
	must(t)(e.ConvertNow())
	waitFor(t, e, func(s Snapshot) bool { return s.Primary() == "我" })

	close(release)
	snap := settle(t, e)
	if snap.Primary() != "我" {
		t.Errorf("stale merge overwrote primary: %q", snap.Primary())
	}
}

func TestMergeFailureKeepsPrimary(t *testing.T) {
	g := mock.New()
	g.Func = func(_ context.Context, req generate.Request) (string, error) {
		if isMerge(req) {
			return "", generate.Errorf(generate.ErrBadRequest, 400, "rejected")
		}
		return "王", nil
	}
	e := newTestEngine(t, g)

	convert(t, e, "wang")
	must(t)(e.ToggleCorrection())
	must(t)(e.CorrectionInput("wang"))
	must(t)(e.PickCandidate(1))
	must(t)(e.ConfirmSegment())
	must(t)(e.ToggleCorrection())

	snap := settle(t, e)
	if snap.Primary() != "王" || snap.Status.Kind != StatusError {
		t.Errorf("primary=%q status=%+v", snap.Primary(), snap.Status)
	}
}

func TestExitWithoutSegments(t *testing.T) {
	g := mock.New()
	g.Func = replies{convert: "你"}.answer
	e := newTestEngine(t, g)

	convert(t, e, "ni")
	must(t)(e.ToggleCorrection())
	must(t)(e.CorrectionInput("ni"))
	must(t)(e.PickCandidate(0))
	snap := must(t)(e.ToggleCorrection())

	if snap.Status.Message != "no correction applied" {
		t.Errorf("status = %+v", snap.Status)
	}
	e.WaitIdle()
	if g.CallCount() != 1 {
		t.Errorf("merge request sent without segments")
	}
}

func TestSessionErrors(t *testing.T) {
	testCases := []struct {
		name   string
		setup  func(e *Engine)
		op     func(e *Engine) (Snapshot, error)
		want   error
		status string
	}{
		{"next page without results", nil, (*Engine).NextPage, candidate.ErrLastPage, "already at last page"},
		{"prev page at start", nil, (*Engine).PrevPage, candidate.ErrFirstPage, "already at first page"},
		{"confirm segment while closed", nil, (*Engine).ConfirmSegment, correction.ErrClosed, ""},
		{"correction input while closed", nil, func(e *Engine) (Snapshot, error) {
			return e.CorrectionInput("ni")
		}, correction.ErrClosed, ""},
		{"nothing to confirm", func(e *Engine) {
			_, _ = e.ToggleCorrection()
		}, (*Engine).ConfirmSegment, correction.ErrNothingToConfirm, "nothing to confirm"},
		{"pick outside page", func(e *Engine) {
			_, _ = e.ToggleCorrection()
			_, _ = e.CorrectionInput("ni")
		}, func(e *Engine) (Snapshot, error) {
			return e.PickCandidate(5)
		}, candidate.ErrNoCandidate, ""},
		{"pick without correction input", func(e *Engine) {
			_, _ = e.ToggleCorrection()
			_, _ = e.Input("ni")
		}, func(e *Engine) (Snapshot, error) {
			return e.PickCandidate(0)
		}, correction.ErrNoInput, ""},
		{"confirm empty suggestion", nil, (*Engine).ConfirmSuggestion, suggestion.ErrNothingSelected, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(t, nil)
			if tc.setup != nil {
				tc.setup(e)
			}
			before := must(t)(e.Snapshot())
			snap, err := tc.op(e)

			var sessErr *SessionError
			if !errors.As(err, &sessErr) || !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want SessionError wrapping %v", err, tc.want)
			}
			if tc.status != "" && snap.Status.Message != tc.status {
				t.Errorf("status = %q, want %q", snap.Status.Message, tc.status)
			}
			if snap.Status.Kind != StatusError {
				t.Errorf("status kind = %q, want error", snap.Status.Kind)
			}
			if snap.Candidates.Page != before.Candidates.Page || len(snap.Correction.Segments) != len(before.Correction.Segments) {
				t.Error("rejected operation changed state")
			}
		})
	}
}

func TestPaging(t *testing.T) {
	entries := make([]dictionary.Entry, 25)
	for i := range entries {
		entries[i] = dictionary.Entry{Text: fmt.Sprintf("字%d", i), Pinyin: "zi", Frequency: 100 - i}
	}
	e := newTestEngine(t, nil, entries...)

	must(t)(e.ToggleCorrection())
	snap := must(t)(e.CorrectionInput("zi"))
	if snap.Candidates.TotalPages != 3 || len(snap.Candidates.Entries) != 10 {
		t.Fatalf("first page = %+v", snap.Candidates)
	}
	must(t)(e.NextPage())
	snap = must(t)(e.NextPage())
	if snap.Candidates.Page != 2 || len(snap.Candidates.Entries) != 5 {
		t.Errorf("last page = %d with %d entries", snap.Candidates.Page, len(snap.Candidates.Entries))
	}
	if _, err := e.NextPage(); !errors.Is(err, candidate.ErrLastPage) {
		t.Errorf("NextPage past end = %v", err)
	}

	snap = must(t)(e.PickCandidate(4))
	if snap.Correction.Pending == nil || snap.Correction.Pending.Text != "字24" {
		t.Errorf("picked %+v, want 字24", snap.Correction.Pending)
	}

	// A new query starts from the first page.
	snap = must(t)(e.CorrectionInput("z i"))
	if snap.Candidates.Page != 0 {
		t.Errorf("page = %d after query change, want 0", snap.Candidates.Page)
	}
}

func TestCycleGeneratesVariants(t *testing.T) {
	g := mock.New()
	g.Func = replies{convert: "我要", colloquial: "我想要", expand: "去吃饭"}.answer
	e := newTestEngine(t, g)

	convert(t, e, "wo yao")
	snap := must(t)(e.Cycle())
	if snap.Selected != 1 || snap.Suggestions[1].State != "pending" {
		t.Fatalf("after first cycle: %+v", snap.Suggestions)
	}
	snap = settle(t, e)
	if snap.Suggestions[1].Text != "我想要" {
		t.Errorf("colloquial = %q", snap.Suggestions[1].Text)
	}

	must(t)(e.Cycle())
	snap = settle(t, e)
	if snap.Suggestions[2].Text != "我要，去吃饭" {
		t.Errorf("expanded = %q", snap.Suggestions[2].Text)
	}

	snap = must(t)(e.Cycle())
	if snap.Selected != 0 {
		t.Errorf("selected = %d after three cycles", snap.Selected)
	}
	must(t)(e.Cycle())
	e.WaitIdle()
	if n := g.CallCount(); n != 3 {
		t.Errorf("generator calls = %d, want 3 (variants generated once)", n)
	}

	snap = must(t)(e.ConfirmSuggestion())
	if snap.Output != "我想要" {
		t.Errorf("output = %q", snap.Output)
	}
}

func TestCycleDisabledInCorrection(t *testing.T) {
	g := mock.New()
	g.Func = replies{convert: "我要"}.answer
	e := newTestEngine(t, g)

	convert(t, e, "wo yao")
	must(t)(e.ToggleCorrection())
	snap := must(t)(e.Cycle())
	if snap.Selected != 0 {
		t.Errorf("cycle moved selection to %d in correction mode", snap.Selected)
	}
	e.WaitIdle()
	if g.CallCount() != 1 {
		t.Errorf("variant generated in correction mode")
	}
}

func TestVariantFailureRetries(t *testing.T) {
	var attempts atomic.Int32
	g := mock.New()
	g.Func = func(ctx context.Context, req generate.Request) (string, error) {
		if req.MaxTokens == 100 && attempts.Add(1) == 1 {
			return "", generate.Errorf(generate.ErrMalformedResponse, 0, "no content")
		}
		return replies{convert: "你好", colloquial: "你好呀", expand: "你好，朋友"}.answer(ctx, req)
	}
	e := newTestEngine(t, g)

	convert(t, e, "ni hao")
	must(t)(e.Cycle())
	snap := settle(t, e)
	if snap.Suggestions[1].State != "empty" || snap.Status.Kind != StatusError {
		t.Fatalf("after failure: %+v status=%+v", snap.Suggestions[1], snap.Status)
	}

	must(t)(e.Cycle())
	must(t)(e.Cycle())
	must(t)(e.Cycle())
	snap = settle(t, e)
	if snap.Suggestions[1].Text != "你好呀" {
		t.Errorf("retry gave %+v", snap.Suggestions[1])
	}
}

func TestVariantEqualToPrimary(t *testing.T) {
	g := mock.New()
	g.Func = replies{convert: "你好", colloquial: "你好"}.answer
	e := newTestEngine(t, g)

	convert(t, e, "ni hao")
	must(t)(e.Cycle())
	snap := settle(t, e)
	if snap.Suggestions[1].State != "empty" {
		t.Errorf("identical variant kept: %+v", snap.Suggestions[1])
	}
}

func TestMainInputUpdatesCandidatesInCorrection(t *testing.T) {
	e := newTestEngine(t, nil)
	must(t)(e.ToggleCorrection())
	snap := must(t)(e.Input("ni"))
	if snap.Candidates.Query != "ni" || snap.Candidates.Total != 2 {
		t.Errorf("candidates = %+v", snap.Candidates)
	}
}

func TestClose(t *testing.T) {
	e := New(candidate.NewMatcher(nil), nil, Config{})
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Input("ni"); !errors.Is(err, ErrClosed) {
		t.Errorf("Input after Close = %v", err)
	}
	_ = e.Close()
}
