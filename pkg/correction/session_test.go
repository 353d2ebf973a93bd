package correction

import (
	"errors"
	"testing"
)

func openSession(t *testing.T, raw, primary string) *Session {
	t.Helper()
	s := New()
	if err := s.Enter(raw, primary); err != nil {
		t.Fatalf("Enter() error = %v", err)
	}
	return s
}

func confirmSegment(t *testing.T, s *Session, pinyin, text string) {
	t.Helper()
	if err := s.SetInput(pinyin); err != nil {
		t.Fatalf("SetInput(%q) error = %v", pinyin, err)
	}
	if err := s.Pick(text); err != nil {
		t.Fatalf("Pick(%q) error = %v", text, err)
	}
	if _, err := s.Confirm(); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
}

func TestSessionMergeRequest(t *testing.T) {
	s := openSession(t, "wang xiao ming", "王小明")
	confirmSegment(t, s, "wang", "汪")
	confirmSegment(t, s, "xiao", "晓")

	if got := s.Summary(); got != "汪(wang) + 晓(xiao)" {
		t.Errorf("Summary() = %q", got)
	}
	if got := s.CorrectedText(); got != "汪晓" {
		t.Errorf("CorrectedText() = %q, want 汪晓", got)
	}

	req, err := s.Exit()
	if err != nil {
		t.Fatalf("Exit() error = %v", err)
	}
	if req == nil {
		t.Fatal("Exit() returned nil request")
	}
	want := MergeRequest{
		SessionID:       s.ID(),
		OriginalPinyin:  "wang xiao ming",
		OriginalText:    "王小明",
		CorrectedPinyin: "wangxiao",
		CorrectedText:   "汪晓",
	}
	if *req != want {
		t.Errorf("Exit() = %+v, want %+v", *req, want)
	}
	if s.IsOpen() {
		t.Error("session still open after Exit")
	}
	if len(s.Segments()) != 0 {
		t.Error("segments not cleared after Exit")
	}
}

func TestSessionPickOverwrites(t *testing.T) {
	s := openSession(t, "ni", "你")
	_ = s.SetInput("ni")
	_ = s.Pick("你")
	_ = s.Pick("泥")

	p, ok := s.Pending()
	if !ok || p.Text != "泥" || p.Pinyin != "ni" {
		t.Fatalf("Pending() = %+v, %v; want 泥(ni)", p, ok)
	}
	seg, err := s.Confirm()
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if seg.Text != "泥" {
		t.Errorf("confirmed %q, want 泥", seg.Text)
	}
	if s.Input() != "" {
		t.Errorf("input = %q after Confirm, want empty", s.Input())
	}
	if _, ok := s.Pending(); ok {
		t.Error("pending pick survived Confirm")
	}
}

func TestSessionErrors(t *testing.T) {
	testCases := []struct {
		name string
		run  func(s *Session) error
		want error
	}{
		{"pick without input", func(s *Session) error {
			return s.Pick("你")
		}, ErrNoInput},
		{"pick with blank input", func(s *Session) error {
			_ = s.SetInput("   ")
			return s.Pick("你")
		}, ErrNoInput},
		{"confirm without pick", func(s *Session) error {
			_, err := s.Confirm()
			return err
		}, ErrNothingToConfirm},
		{"enter twice", func(s *Session) error {
			return s.Enter("x", "y")
		}, ErrAlreadyOpen},
		{"exit without segments", func(s *Session) error {
			_, err := s.Exit()
			return err
		}, ErrNoCorrection},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := openSession(t, "ni hao", "你好")
			if err := tc.run(s); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSessionClosedOperations(t *testing.T) {
	s := New()
	if err := s.SetInput("ni"); !errors.Is(err, ErrClosed) {
		t.Errorf("SetInput on closed session = %v", err)
	}
	if err := s.Pick("你"); !errors.Is(err, ErrClosed) {
		t.Errorf("Pick on closed session = %v", err)
	}
	if _, err := s.Confirm(); !errors.Is(err, ErrClosed) {
		t.Errorf("Confirm on closed session = %v", err)
	}
	if _, err := s.Exit(); !errors.Is(err, ErrClosed) {
		t.Errorf("Exit on closed session = %v", err)
	}
}

func TestSessionEnterTwiceKeepsSegments(t *testing.T) {
	s := openSession(t, "xi an", "西安")
	confirmSegment(t, s, "xi", "西")
	id := s.ID()

	if err := s.Enter("other", "其他"); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("second Enter = %v, want ErrAlreadyOpen", err)
	}
	if n := len(s.Segments()); n != 1 {
		t.Errorf("segments = %d after rejected Enter, want 1", n)
	}
	if s.ID() != id || s.OriginalText() != "西安" {
		t.Error("rejected Enter changed the session snapshot")
	}
}

func TestSessionExitEmptyOriginal(t *testing.T) {
	s := openSession(t, "xi", "")
	confirmSegment(t, s, "xi", "西")

	req, err := s.Exit()
	if err != nil || req != nil {
		t.Fatalf("Exit() = %v, %v; want nil, nil", req, err)
	}
	if s.IsOpen() || len(s.Segments()) != 0 {
		t.Error("Exit did not reset the session")
	}
}

func TestSessionExitDropsPending(t *testing.T) {
	s := openSession(t, "xi", "西")
	_ = s.SetInput("xi")
	_ = s.Pick("希")

	if _, err := s.Exit(); !errors.Is(err, ErrNoCorrection) {
		t.Fatalf("Exit() error = %v, want ErrNoCorrection", err)
	}
	if _, ok := s.Pending(); ok {
		t.Error("pending pick survived Exit")
	}

	// A fresh session starts clean and gets a new id.
	prev := s.ID()
	if err := s.Enter("xi", "西"); err != nil {
		t.Fatal(err)
	}
	if s.ID() == prev {
		t.Error("session id not advanced on re-entry")
	}
	if s.Input() != "" || len(s.Segments()) != 0 {
		t.Error("re-entered session not clean")
	}
}
