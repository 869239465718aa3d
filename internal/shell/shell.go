// Package shell is the terminal front-end. All access to the game goes
// through a Session, so the prompt, the clock poller and relayed moves can
// run side by side.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/game"
	"github.com/hailam/chessplay/internal/relay"
)

const clockPoll = 200 * time.Millisecond

var errUnknownCommand = errors.New("unknown command, try help")

// MoveSource delivers the opponent's moves until ctx ends.
type MoveSource interface {
	Run(ctx context.Context, handle func(relay.MoveMessage)) error
}

// Controller reads commands and prints the game.
type Controller struct {
	session *Session
	out     io.Writer
}

// NewController creates a controller printing to out.
func NewController(s *Session, out io.Writer) *Controller {
	return &Controller{session: s, out: out}
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func usage(w io.Writer) {
	io.WriteString(w, "commands:\n")
	io.WriteString(w, "<from><to> | move <from><to> - play a move, e.g. e2e4\n")
	io.WriteString(w, "b | back - one ply back\n")
	io.WriteString(w, "n | forward - one ply forward\n")
	io.WriteString(w, "start - go to the initial position\n")
	io.WriteString(w, "resume - go to the last position\n")
	io.WriteString(w, "s | show - show the board\n")
	io.WriteString(w, "moves [square] - legal moves, or destinations of one piece\n")
	io.WriteString(w, "rounds - the moves played so far\n")
	io.WriteString(w, "fen - FEN of the shown position\n")
	io.WriteString(w, "status - status of the shown position\n")
	io.WriteString(w, "analyze - ask the analysis engine about the shown position\n")
	io.WriteString(w, "reset - start the game over\n")
	io.WriteString(w, "exit | quit - leave\n")
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("move"), readline.PcItem("back"), readline.PcItem("forward"),
		readline.PcItem("start"), readline.PcItem("resume"), readline.PcItem("show"),
		readline.PcItem("moves"), readline.PcItem("rounds"), readline.PcItem("fen"),
		readline.PcItem("status"), readline.PcItem("analyze"), readline.PcItem("reset"),
		readline.PcItem("help"), readline.PcItem("exit"),
	)
}

func (c *Controller) println(msg string) {
	io.WriteString(c.out, msg)
	io.WriteString(c.out, "\n")
}

// Execute runs one command line. quit is true when the user asked to leave.
func (c *Controller) Execute(ctx context.Context, line string) (quit bool, err error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return false, err
	}
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "exit", "quit", "bye":
		return true, nil
	case "help", "?":
		usage(c.out)
	case "s", "show":
		c.println(c.session.View())
	case "b", "back":
		c.session.Navigate(func(g *game.Game) { g.Back() })
		c.println(c.session.View())
	case "n", "forward":
		c.session.Navigate(func(g *game.Game) { g.Forward() })
		c.println(c.session.View())
	case "start":
		c.session.Navigate((*game.Game).ToStart)
		c.println(c.session.View())
	case "resume":
		c.session.Navigate((*game.Game).Resume)
		c.println(c.session.View())
	case "reset":
		c.session.Reset()
		c.println(c.session.View())
	case "fen":
		c.session.Read(func(g *game.Game) { c.println(g.FEN()) })
	case "status":
		c.session.Read(func(g *game.Game) { c.println(g.Status().String()) })
	case "rounds":
		c.session.Read(func(g *game.Game) {
			for _, r := range g.Rounds() {
				c.println(r)
			}
		})
	case "moves":
		return false, c.moves(args)
	case "analyze":
		actx, cancel := context.WithTimeout(ctx, 60*time.Second)
		defer cancel()
		msg, err := c.session.Analyze(actx)
		if err != nil {
			return false, err
		}
		c.println(msg)
	case "move":
		if len(args) != 1 {
			return false, errors.New("usage: move <from><to>")
		}
		return false, c.move(args[0])
	default:
		if len(args) == 0 {
			if _, err := board.ParseMove(cmd); err == nil {
				return false, c.move(cmd)
			}
		}
		return false, errUnknownCommand
	}
	return false, nil
}

func (c *Controller) move(s string) error {
	m, err := board.ParseMove(strings.ToLower(s))
	if err != nil {
		return err
	}
	if err := c.session.Move(m); err != nil {
		return err
	}
	c.println(c.session.View())
	return nil
}

func (c *Controller) moves(args []string) error {
	if len(args) == 0 {
		c.session.Read(func(g *game.Game) {
			c.println(strings.Join(lo.Map(g.LegalMoves(), func(m board.Move, _ int) string {
				return m.String()
			}), " "))
		})
		return nil
	}

	from, err := board.ParsePosition(strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	c.session.Read(func(g *game.Game) {
		c.println(strings.Join(lo.Map(g.Destinations(from), func(p board.Position, _ int) string {
			return p.String()
		}), " "))
	})
	return nil
}

// Run starts the prompt. It returns when the user quits or ctx ends. The
// clock poller and, when src is not nil, the relay subscriber run next to
// it.
func (c *Controller) Run(ctx context.Context, src MoveSource) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32mchessplay>\033[0m ",
		HistoryFile:     filepath.Join(os.TempDir(), "chessplay.readline"),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    completer(),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return err
	}
	c.out = l.Stdout()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	c.println(c.session.View())

	g.Go(func() error {
		defer cancel()
		for {
			line, err := l.Readline()
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if err != nil {
				return nil
			}

			quit, err := c.Execute(ctx, line)
			if err != nil {
				c.println("Error: " + err.Error())
			}
			if quit {
				return nil
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		return l.Close()
	})

	g.Go(func() error {
		return c.pollClock(ctx)
	})

	if src != nil {
		g.Go(func() error {
			return src.Run(ctx, func(mm relay.MoveMessage) {
				if err := c.session.ApplyRemote(mm); err != nil {
					log.Error().Err(err).Int("ply", mm.Ply).Msg("relayed move rejected")
					c.println("Error: " + err.Error())
					return
				}
				c.println(c.session.View())
			})
		})
	}

	err = g.Wait()
	log.Debug().Msg("exiting readline loop")
	return err
}

func (c *Controller) pollClock(ctx context.Context) error {
	ticker := time.NewTicker(clockPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if c.session.Tick() {
				c.println(c.session.View())
			}
		}
	}
}

// Greeting is printed on the very first launch.
const Greeting = "Welcome to chessplay. Type help for the list of commands."
