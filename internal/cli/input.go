// Package cli is an interactive line-based front end to the IME engine, used
// for trying the engine out and debugging it from a terminal.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/YanaYuan/chinese-pinyin-ime/internal/logger"
	"github.com/YanaYuan/chinese-pinyin-ime/internal/utils"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/ime"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/cheynewallace/tabby"
)

// Engine is the part of *ime.Engine the CLI drives.
type Engine interface {
	Input(text string) (ime.Snapshot, error)
	ConvertNow() (ime.Snapshot, error)
	CorrectionInput(text string) (ime.Snapshot, error)
	ToggleCorrection() (ime.Snapshot, error)
	PickCandidate(slot int) (ime.Snapshot, error)
	ConfirmSegment() (ime.Snapshot, error)
	NextPage() (ime.Snapshot, error)
	PrevPage() (ime.Snapshot, error)
	Cycle() (ime.Snapshot, error)
	ConfirmSuggestion() (ime.Snapshot, error)
	Clear() (ime.Snapshot, error)
	Snapshot() (ime.Snapshot, error)
	WaitIdle()
}

// Options control what the candidate table shows.
type Options struct {
	ShowPinyin    bool
	ShowFrequency bool
}

const helpText = `commands:
  <pinyin>      set input and convert
  :c            toggle correction mode
  :p <pinyin>   correction input
  1-9, 0        pick candidate on the page
  :ok           confirm picked candidate
  = / -         next / previous candidate page
  :tab          cycle suggestions
  :sp           commit selected suggestion
  :clear        clear input and output
  :copy         copy output to clipboard
  :s            show state
  :q            quit`

// InputHandler runs the REPL.
type InputHandler struct {
	engine Engine
	opts   Options
	out    io.Writer
	log    *log.Logger
	copy   func(string) error
}

// NewInputHandler creates a REPL writing to out.
func NewInputHandler(engine Engine, opts Options, out io.Writer) *InputHandler {
	l := logger.NewWithWriter(out, "ime")
	if l.GetLevel() > log.InfoLevel {
		l.SetLevel(log.InfoLevel)
	}
	return &InputHandler{
		engine: engine,
		opts:   opts,
		out:    out,
		log:    l,
		copy:   clipboard.WriteAll,
	}
}

// Start reads commands from in until EOF or :q.
func (h *InputHandler) Start(in io.Reader) error {
	h.log.Print("Pinyin IME CLI, :h for help")
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(h.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == ":q" {
			return nil
		}
		h.handleLine(line)
	}
}

// handleLine runs one command and prints the resulting state.
func (h *InputHandler) handleLine(line string) {
	snap, err := h.dispatch(line)
	if errors.Is(err, errHandled) {
		return
	}
	if err != nil {
		var sessErr *ime.SessionError
		if !errors.As(err, &sessErr) {
			h.log.Error(err)
			return
		}
	}
	h.render(snap)
}

var errHandled = errors.New("handled")

func (h *InputHandler) dispatch(line string) (ime.Snapshot, error) {
	if slot, ok := pickSlot(line); ok {
		return h.engine.PickCandidate(slot)
	}

	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case ":h", ":help":
		fmt.Fprintln(h.out, helpText)
		return ime.Snapshot{}, errHandled
	case ":c":
		if _, err := h.engine.ToggleCorrection(); err != nil {
			return ime.Snapshot{}, err
		}
		return h.settle()
	case ":p":
		return h.engine.CorrectionInput(strings.TrimSpace(arg))
	case ":ok":
		return h.engine.ConfirmSegment()
	case "=":
		return h.engine.NextPage()
	case "-":
		return h.engine.PrevPage()
	case ":tab":
		if _, err := h.engine.Cycle(); err != nil {
			return ime.Snapshot{}, err
		}
		return h.settle()
	case ":sp":
		return h.engine.ConfirmSuggestion()
	case ":clear":
		return h.engine.Clear()
	case ":copy":
		return h.copyOutput()
	case ":s":
		return h.engine.Snapshot()
	}

	if strings.HasPrefix(line, ":") {
		h.log.Warnf("Unknown command %q, :h for help", cmd)
		return ime.Snapshot{}, errHandled
	}
	if !utils.IsPinyinInput(line) {
		h.log.Warnf("Not pinyin: %q", line)
		return ime.Snapshot{}, errHandled
	}
	if _, err := h.engine.Input(line); err != nil {
		return ime.Snapshot{}, err
	}
	if _, err := h.engine.ConvertNow(); err != nil {
		return ime.Snapshot{}, err
	}
	return h.settle()
}

// settle waits for generation started by the last command.
func (h *InputHandler) settle() (ime.Snapshot, error) {
	h.engine.WaitIdle()
	return h.engine.Snapshot()
}

func (h *InputHandler) copyOutput() (ime.Snapshot, error) {
	snap, err := h.engine.Snapshot()
	if err != nil {
		return snap, err
	}
	if snap.Output == "" {
		h.log.Warn("Nothing to copy")
		return ime.Snapshot{}, errHandled
	}
	if err := h.copy(snap.Output); err != nil {
		return snap, fmt.Errorf("copy to clipboard: %w", err)
	}
	h.log.Infof("Copied %d characters", len([]rune(snap.Output)))
	return snap, nil
}

// pickSlot maps the keys 1-9 and 0 to page slots 0-9.
func pickSlot(line string) (int, bool) {
	if len(line) != 1 {
		return 0, false
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, false
	}
	if n == 0 {
		return 9, true
	}
	return n - 1, true
}

func (h *InputHandler) render(snap ime.Snapshot) {
	if snap.Input != "" {
		fmt.Fprintf(h.out, "input: %s\n", snap.Input)
	}

	var parts []string
	for i, s := range snap.Suggestions {
		text := s.Text
		switch s.State {
		case "pending":
			text = "..."
		case "empty":
			if i == 0 {
				continue
			}
			text = "-"
		}
		if s.Selected {
			text = "[" + text + "]"
		}
		parts = append(parts, fmt.Sprintf("%d.%s", i+1, text))
	}
	if snap.Primary() != "" {
		fmt.Fprintf(h.out, "suggestions: %s\n", strings.Join(parts, "  "))
	}

	if c := snap.Correction; c.Open {
		fmt.Fprintf(h.out, "correcting: %s -> %s\n", c.OriginalPinyin, c.OriginalText)
		if c.Summary != "" {
			fmt.Fprintf(h.out, "segments: %s\n", c.Summary)
		}
		if c.Pending != nil {
			fmt.Fprintf(h.out, "picked: %s(%s)\n", c.Pending.Text, c.Pending.Pinyin)
		}
		h.renderCandidates(snap.Candidates)
	}

	if snap.Output != "" {
		fmt.Fprintf(h.out, "output: %s\n", snap.Output)
	}
	h.renderStatus(snap.Status)
}

func (h *InputHandler) renderCandidates(page ime.CandidatePage) {
	if page.Query == "" {
		return
	}
	if page.Total == 0 {
		h.log.Warnf("No candidates for %q", page.Query)
		return
	}

	table := tabby.NewCustom(tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0))
	header := []any{"#", "Text"}
	if h.opts.ShowPinyin {
		header = append(header, "Pinyin")
	}
	if h.opts.ShowFrequency {
		header = append(header, "Freq")
	}
	table.AddHeader(header...)
	for i, e := range page.Entries {
		key := strconv.Itoa((i + 1) % 10)
		row := []any{key, e.Text}
		if h.opts.ShowPinyin {
			row = append(row, e.Pinyin)
		}
		if h.opts.ShowFrequency {
			row = append(row, e.Frequency)
		}
		table.AddLine(row...)
	}
	table.Print()
	fmt.Fprintf(h.out, "page %d/%d (%d candidates)\n", page.Page+1, page.TotalPages, page.Total)
}

func (h *InputHandler) renderStatus(st ime.Status) {
	if st.Message == "" {
		return
	}
	switch st.Kind {
	case ime.StatusError:
		h.log.Error(st.Message)
	case ime.StatusSuccess:
		h.log.Info(st.Message)
	default:
		h.log.Print(st.Message)
	}
}
