// Package ime wires the dictionary candidates, the correction session and
// the AI suggestion set into one input-method engine.
//
// All engine state is owned by a single event-loop goroutine. Public
// operations post a closure to the loop and wait for the resulting
// Snapshot. Generation calls run in their own goroutines and post their
// results back tagged with the conversion id, suggestion generation or
// correction session they were issued for; results whose tag no longer
// matches are dropped.
package ime

import (
	"context"
	"sync"
	"time"

	"github.com/YanaYuan/chinese-pinyin-ime/internal/debounce"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/candidate"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/correction"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/generate"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/suggestion"
	"github.com/charmbracelet/log"
)

const (
	DefaultDebounce        = 1000 * time.Millisecond
	DefaultGenerateTimeout = 30 * time.Second
)

// Config holds engine timings.
type Config struct {
	// Debounce is how long input must be stable before conversion starts.
	Debounce time.Duration
	// GenerateTimeout bounds each generation call; 0 uses the default.
	GenerateTimeout time.Duration
}

// Engine is the IME state machine.
type Engine struct {
	source candidate.Source
	gen    generate.Generator
	cfg    Config

	events    chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	workers   sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	debouncer *debounce.Debouncer

	// Loop-owned state.
	input       string
	convSeq     uint64
	converting  bool
	suggestions *suggestion.Controller
	session     *correction.Session
	pager       *candidate.Pager
	status      Status
	// pending counts generation results not yet applied; idle waiters are
	// released when it drops to zero.
	pending int
	idle    []chan struct{}
}

// New starts an engine over source. A nil gen is treated as
// generate.Unconfigured.
func New(source candidate.Source, gen generate.Generator, cfg Config) *Engine {
	if gen == nil {
		gen = generate.Unconfigured{}
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = DefaultGenerateTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		source:      source,
		gen:         gen,
		cfg:         cfg,
		events:      make(chan func()),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
		debouncer:   debounce.New(cfg.Debounce),
		suggestions: suggestion.NewController(),
		session:     correction.New(),
		pager:       candidate.NewPager(source),
	}
	go e.run()
	log.Debugf("IME engine started (debounce %v)", cfg.Debounce)
	return e
}

func (e *Engine) run() {
	defer close(e.done)
	for {
		select {
		case fn := <-e.events:
			fn()
		case <-e.quit:
			return
		}
	}
}

// do runs fn on the loop and returns the state it leaves behind.
func (e *Engine) do(fn func() error) (Snapshot, error) {
	type result struct {
		snap Snapshot
		err  error
	}
	reply := make(chan result, 1)
	ev := func() {
		err := fn()
		reply <- result{e.snapshot(), err}
	}

	select {
	case e.events <- ev:
	case <-e.done:
		return Snapshot{}, ErrClosed
	}
	select {
	case r := <-reply:
		return r.snap, r.err
	case <-e.done:
		return Snapshot{}, ErrClosed
	}
}

// post queues fn from a worker goroutine. It gives up once the loop stops.
func (e *Engine) post(fn func()) {
	select {
	case e.events <- fn:
	case <-e.done:
	}
}

// spawn runs req on the generator and hands the outcome to apply on the loop.
// It must be called on the loop.
func (e *Engine) spawn(req generate.Request, apply func(text string, err error)) {
	e.pending++
	e.workers.Add(1)
	go func() {
		defer e.workers.Done()
		ctx, cancel := context.WithTimeout(e.ctx, e.cfg.GenerateTimeout)
		text, err := e.gen.Generate(ctx, req)
		cancel()
		e.post(func() {
			apply(text, err)
			e.settled()
		})
	}()
}

// settled marks one generation result as applied.
func (e *Engine) settled() {
	e.pending--
	if e.pending > 0 {
		return
	}
	for _, ch := range e.idle {
		close(ch)
	}
	e.idle = nil
}

// WaitIdle blocks until every generation call started so far, and any call
// started while applying their results, has been applied. Pending debounced
// conversions are not waited on. It returns early if the engine closes.
func (e *Engine) WaitIdle() {
	wait := make(chan struct{})
	_, err := e.do(func() error {
		if e.pending == 0 {
			close(wait)
		} else {
			e.idle = append(e.idle, wait)
		}
		return nil
	})
	if err != nil {
		return
	}
	select {
	case <-wait:
	case <-e.done:
	}
}

// Close stops the loop, cancels pending conversions and in-flight calls,
// and waits for worker goroutines to exit.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.debouncer.Cancel()
		e.cancel()
		close(e.quit)
		<-e.done
		e.workers.Wait()
		log.Debug("IME engine stopped")
	})
	return nil
}

func (e *Engine) setStatus(kind StatusKind, msg string) {
	e.status = Status{Kind: kind, Message: msg}
}
