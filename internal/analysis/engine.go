// Package analysis talks to an external UCI engine process. The engine only
// ever receives FEN strings; its answers are advisory and never touch a
// Game.
package analysis

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chessplay/internal/board"
)

var (
	ErrNoCommand = errors.New("analysis: no engine command")
	ErrClosed    = errors.New("analysis: engine closed")
)

// Result is the outcome of one analysis.
type Result struct {
	BestMove board.Move
	Ponder   string
	// Info is the last info line with a depth, i.e. the deepest completed
	// iteration.
	Info Info
}

// Engine is a running UCI engine process. Requests are serialised.
type Engine struct {
	Name string

	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string

	mu     sync.Mutex
	closed bool

	handshakeTimeout time.Duration
	attempts         uint
	logger           zerolog.Logger
}

// Option configures Start.
type Option func(*Engine)

// WithHandshakeTimeout bounds the uci/isready exchange of each start attempt.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(e *Engine) { e.handshakeTimeout = d }
}

// WithAttempts sets how many times starting the process is tried.
func WithAttempts(n uint) Option {
	return func(e *Engine) { e.attempts = n }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Start launches the engine described by commandLine (shell quoting rules
// apply) and completes the UCI handshake. Failed starts are retried with
// backoff; a command that cannot be found is not retried.
func Start(ctx context.Context, commandLine string, opts ...Option) (*Engine, error) {
	args, err := shellquote.Split(commandLine)
	if err != nil {
		return nil, fmt.Errorf("analysis: parsing command %q: %w", commandLine, err)
	}
	if len(args) == 0 {
		return nil, ErrNoCommand
	}

	e := &Engine{
		handshakeTimeout: 10 * time.Second,
		attempts:         3,
		logger:           log.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().Str("component", "analysis").Str("engine", args[0]).Logger()

	err = retry.Do(
		func() error {
			return e.launch(ctx, args)
		},
		retry.Context(ctx),
		retry.Attempts(e.attempts),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, exec.ErrNotFound)
		}),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			e.logger.Warn().Err(err).Uint("n", n).Msg("engine-start-failed-retrying")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("analysis: starting %s: %w", args[0], err)
	}
	e.logger.Info().Str("name", e.Name).Msg("engine ready")
	return e, nil
}

// launch starts the process and runs the handshake. On failure the process
// is killed so the next attempt starts clean.
func (e *Engine) launch(ctx context.Context, args []string) error {
	cmd := exec.Command(args[0], args[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	e.cmd = cmd
	e.stdin = stdin
	e.lines = make(chan string, 64)
	go readLines(stdout, e.lines)

	hctx, cancel := context.WithTimeout(ctx, e.handshakeTimeout)
	defer cancel()

	if err := e.handshake(hctx); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return err
	}
	return nil
}

func readLines(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- strings.TrimSpace(scanner.Text())
	}
}

func (e *Engine) handshake(ctx context.Context) error {
	if err := e.send("uci"); err != nil {
		return err
	}
	err := e.readUntil(ctx, func(line string) bool {
		if name, ok := strings.CutPrefix(line, "id name "); ok {
			e.Name = name
		}
		return line == "uciok"
	})
	if err != nil {
		return fmt.Errorf("waiting for uciok: %w", err)
	}
	return e.sync(ctx)
}

// sync sends isready and drains output until readyok. Stale lines of an
// abandoned search are discarded on the way.
func (e *Engine) sync(ctx context.Context) error {
	if err := e.send("isready"); err != nil {
		return err
	}
	if err := e.readUntil(ctx, func(line string) bool { return line == "readyok" }); err != nil {
		return fmt.Errorf("waiting for readyok: %w", err)
	}
	return nil
}

// Analyze searches fen to the given depth. If ctx ends first the search is
// stopped and ctx.Err() returned.
func (e *Engine) Analyze(ctx context.Context, fen string, depth int) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Result{}, ErrClosed
	}

	if err := e.sync(ctx); err != nil {
		return Result{}, err
	}
	if err := e.send("position fen " + fen); err != nil {
		return Result{}, err
	}
	if err := e.send("go depth " + strconv.Itoa(depth)); err != nil {
		return Result{}, err
	}
	e.logger.Debug().Str("fen", fen).Int("depth", depth).Msg("analysis started")

	var res Result
	err := e.readUntil(ctx, func(line string) bool {
		if info, ok := ParseInfo(line); ok {
			res.Info = info
			return false
		}
		if best, ponder, ok := ParseBestMove(line); ok {
			res.BestMove = best
			res.Ponder = ponder
			return true
		}
		return false
	})
	if err != nil {
		if ctx.Err() != nil {
			e.send("stop")
		}
		return Result{}, err
	}

	e.logger.Debug().Str("bestmove", res.BestMove.String()).Str("score", res.Info.String()).Msg("analysis done")
	return res, nil
}

// Close asks the engine to quit and kills it if it does not exit promptly.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	e.send("quit")
	e.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		e.logger.Warn().Msg("engine did not quit, killing it")
		e.cmd.Process.Kill()
		return <-done
	}
}

func (e *Engine) send(cmd string) error {
	e.logger.Trace().Str("cmd", cmd).Msg(">")
	_, err := io.WriteString(e.stdin, cmd+"\n")
	return err
}

// readUntil feeds engine output to done until it returns true, the engine
// exits or ctx ends.
func (e *Engine) readUntil(ctx context.Context, done func(string) bool) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-e.lines:
			if !ok {
				return io.ErrUnexpectedEOF
			}
			e.logger.Trace().Str("line", line).Msg("<")
			if done(line) {
				return nil
			}
		}
	}
}
