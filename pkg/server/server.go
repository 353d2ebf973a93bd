package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/YanaYuan/chinese-pinyin-ime/internal/logger"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/candidate"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/ime"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Engine is the part of *ime.Engine the server drives.
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
}

// Options describe the server in the ready message.
type Options struct {
	Entries    int
	Generation bool
}

// Server handles IPC for one engine.
type Server struct {
	engine Engine
	source candidate.Source
	opts   Options

	decoder *msgpack.Decoder
	writer  *bufio.Writer
	encoder *msgpack.Encoder
	mu      sync.Mutex
	log     *log.Logger
}

// NewServer creates a server on stdin/stdout.
func NewServer(engine Engine, source candidate.Source, opts Options) *Server {
	return NewServerWithIO(engine, source, opts, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server on arbitrary streams.
func NewServerWithIO(engine Engine, source candidate.Source, opts Options, r io.Reader, w io.Writer) *Server {
	bw := bufio.NewWriter(w)
	enc := msgpack.NewEncoder(bw)
	return &Server{
		engine:  engine,
		source:  source,
		opts:    opts,
		decoder: msgpack.NewDecoder(bufio.NewReader(r)),
		writer:  bw,
		encoder: enc,
		log:     logger.New("ipc"),
	}
}

// Serve sends the ready message and answers requests until the input ends.
// A read error after ctx is done is treated as a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Debug("Starting server.")
	if err := s.send(ReadyMessage{Status: "ready", Entries: s.opts.Entries, Generation: s.opts.Generation}); err != nil {
		return err
	}

	for {
		var req Request
		if err := s.decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			s.log.Errorf("Decoding request: %v", err)
			_ = s.send(Response{Error: "invalid msgpack request", Code: CodeBadRequest})
			return fmt.Errorf("decode request: %w", err)
		}
		if err := s.send(s.handle(req)); err != nil {
			return err
		}
	}
}

// handle runs one request.
func (s *Server) handle(req Request) Response {
	start := time.Now()
	resp := s.dispatch(req)
	resp.ID = req.ID
	resp.TimeTaken = time.Since(start).Microseconds()
	s.log.Debugf("%s %s -> %d (%dµs)", req.ID, req.Op, resp.Code, resp.TimeTaken)
	return resp
}

func (s *Server) dispatch(req Request) Response {
	var op func() (ime.Snapshot, error)
	switch req.Op {
	case OpInput:
		op = func() (ime.Snapshot, error) { return s.engine.Input(req.Text) }
	case OpConvert:
		op = s.engine.ConvertNow
	case OpCorrectionInput:
		op = func() (ime.Snapshot, error) { return s.engine.CorrectionInput(req.Text) }
	case OpToggle:
		op = s.engine.ToggleCorrection
	case OpPick:
		op = func() (ime.Snapshot, error) { return s.engine.PickCandidate(req.Slot) }
	case OpConfirmSegment:
		op = s.engine.ConfirmSegment
	case OpNextPage:
		op = s.engine.NextPage
	case OpPrevPage:
		op = s.engine.PrevPage
	case OpCycle:
		op = s.engine.Cycle
	case OpConfirm:
		op = s.engine.ConfirmSuggestion
	case OpClear:
		op = s.engine.Clear
	case OpSnapshot:
		op = s.engine.Snapshot
	case OpMatch:
		return s.handleMatch(req)
	default:
		return Response{Error: fmt.Sprintf("unknown op: %q", req.Op), Code: CodeBadRequest}
	}

	snap, err := op()
	if errors.Is(err, ime.ErrClosed) {
		return Response{Error: err.Error(), Code: CodeClosed}
	}
	resp := Response{Snapshot: &snap}
	if err != nil {
		var sessErr *ime.SessionError
		resp.Error = err.Error()
		resp.Code = CodeInternal
		if errors.As(err, &sessErr) {
			resp.Code = CodeRejected
		}
	}
	return resp
}

func (s *Server) handleMatch(req Request) Response {
	if req.Text == "" {
		return Response{Error: "missing 'text' parameter", Code: CodeBadRequest}
	}
	if s.source == nil {
		return Response{}
	}
	entries := s.source.Match(req.Text)
	if req.Limit > 0 && len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}
	return Response{Candidates: entries, Count: len(entries)}
}

func (s *Server) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.encoder.Encode(v); err != nil {
		s.log.Errorf("Encoding response: %v", err)
		return err
	}
	return s.writer.Flush()
}
