package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/session"
)

// CommandKind names a line command understood by the runner.
type CommandKind string

const (
	CmdStart   CommandKind = "start"
	CmdNext    CommandKind = "next"
	CmdBack    CommandKind = "back"
	CmdAsk     CommandKind = "ask"
	CmdReplay  CommandKind = "replay"
	CmdExplain CommandKind = "explain"
	CmdExit    CommandKind = "exit"
	CmdStatus  CommandKind = "status"
	CmdHelp    CommandKind = "help"
)

var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrMissingQuestion = errors.New("ask needs a question")
)

// Command is one parsed input line.
type Command struct {
	Kind CommandKind
	Arg  string
}

var aliases = map[string]CommandKind{
	"":        CmdNext,
	"start":   CmdStart,
	"begin":   CmdStart,
	"next":    CmdNext,
	"n":       CmdNext,
	"back":    CmdBack,
	"b":       CmdBack,
	"prev":    CmdBack,
	"ask":     CmdAsk,
	"replay":  CmdReplay,
	"r":       CmdReplay,
	"explain": CmdExplain,
	"e":       CmdExplain,
	"exit":    CmdExit,
	"quit":    CmdExit,
	"q":       CmdExit,
	"status":  CmdStatus,
	"s":       CmdStatus,
	"help":    CmdHelp,
	"h":       CmdHelp,
	"?":       CmdHelp,
}

// HelpText lists the commands for SystemOutput.
const HelpText = `commands:
  <enter> | next     advance (begins the exercise if not started)
  back               previous step
  replay             speak the step again
  explain            describe the visual
  ask <question>     ask the guide (a line ending in "?" also works)
  status             show the current step
  exit               leave and save progress`

// ParseCommand maps a trimmed input line to a Command. Free text ending in a
// question mark is treated as a question.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	kind, ok := aliases[strings.ToLower(word)]
	if !ok {
		if strings.HasSuffix(line, "?") {
			return Command{Kind: CmdAsk, Arg: line}, nil
		}
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, word)
	}
	if kind == CmdAsk && rest == "" {
		return Command{}, ErrMissingQuestion
	}
	return Command{Kind: kind, Arg: rest}, nil
}

// Apply runs cmd against ctrl. Status and help are handled by the caller.
// Next on a session that has not started activates it.
func Apply(ctx context.Context, ctrl *session.Controller, cmd Command) error {
	switch cmd.Kind {
	case CmdStart:
		return ctrl.Activate(ctx)
	case CmdNext:
		if ctrl.Status() == domain.StatusNotStarted {
			return ctrl.Activate(ctx)
		}
		return ctrl.Advance(ctx)
	case CmdBack:
		return ctrl.Retreat(ctx)
	case CmdAsk:
		return ctrl.Ask(ctx, cmd.Arg)
	case CmdReplay:
		return ctrl.Replay(ctx)
	case CmdExplain:
		return ctrl.ExplainVisual(ctx)
	case CmdExit:
		return ctrl.Exit(ctx)
	}
	return nil
}
