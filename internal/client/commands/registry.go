package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"chessarena/internal/client/api"
	"chessarena/internal/client/display"
	"chessarena/internal/client/local"
)

// ErrExit is returned by Execute when the user asked to leave
var ErrExit = errors.New("exit")

type Session interface {
	GetAPIBaseURL() string
	SetAPIBaseURL(string)
	GetCurrentGame() string
	SetCurrentGame(string)
	GetLastMoveCount() int
	SetLastMoveCount(int)
	GetClient() *api.Client
	GetMatch() *local.Match
	IsVerbose() bool
	GetGameState() *api.GameResponse
	SetGameState(*api.GameResponse)
	SetPlayerColor(string)
	GetPlayerColor() string
	Out() io.Writer
}

// Command defines a client command with its handler
type Command struct {
	Name        string
	ShortName   string
	Description string
	Usage       string
	Handler     func(Session, []string) error
}

type group struct {
	title string
	names []string
}

// Registry manages command registration and execution
type Registry struct {
	session  Session
	commands map[string]*Command
	groups   []group
}

// NewRegistry registers the offline command set when the session carries a
// local match and the server command set otherwise
func NewRegistry(session Session) *Registry {
	r := &Registry{
		session:  session,
		commands: make(map[string]*Command),
	}

	if session.GetMatch() != nil {
		r.registerLocalCommands()
	} else {
		r.registerGameCommands()
		r.registerDebugCommands()
	}

	r.Group("Utility Commands",
		&Command{
			Name:        "clear",
			ShortName:   "-",
			Description: "Clear screen",
			Usage:       "clear",
			Handler:     clearHandler,
		},
		&Command{
			Name:        "help",
			ShortName:   "?",
			Description: "Show available commands",
			Usage:       "help [command]",
			Handler:     r.helpHandler,
		},
		&Command{
			Name:        "exit",
			ShortName:   "x",
			Description: "Exit the client",
			Usage:       "exit",
			Handler:     exitHandler,
		},
	)

	return r
}

// Group registers commands under a help section title
func (r *Registry) Group(title string, cmds ...*Command) {
	g := group{title: title}
	for _, cmd := range cmds {
		r.Register(cmd)
		g.names = append(g.names, cmd.Name)
	}
	r.groups = append(r.groups, g)
}

func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	if cmd.ShortName != "" {
		r.commands[cmd.ShortName] = cmd
	}
}

// Execute runs one input line, only ErrExit is returned to the caller
func (r *Registry) Execute(input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}
	out := r.session.Out()

	cmdName := parts[0]
	args := parts[1:]

	cmd, exists := r.commands[cmdName]
	if !exists {
		fmt.Fprintf(out, "%sUnknown command: %s%s\n", display.Red, cmdName, display.Reset)
		fmt.Fprintf(out, "Type 'help' for available commands\n")
		return nil
	}

	if cl := r.session.GetClient(); cl != nil {
		cl.SetVerbose(r.session.IsVerbose())
	}

	err := cmd.Handler(r.session, args)
	if errors.Is(err, ErrExit) {
		return err
	}
	if err != nil {
		fmt.Fprintf(out, "%sError: %s%s\n", display.Red, err.Error(), display.Reset)
	}
	return nil
}

func (r *Registry) helpHandler(s Session, args []string) error {
	out := s.Out()
	if len(args) > 0 {
		cmd, exists := r.commands[args[0]]
		if !exists {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(out, "\n%s%s%s - %s\n", display.Cyan, cmd.Name, display.Reset, cmd.Description)
		if cmd.ShortName != "" {
			fmt.Fprintf(out, "Short form: %s%s%s\n", display.Cyan, cmd.ShortName, display.Reset)
		}
		fmt.Fprintf(out, "Usage: %s\n", cmd.Usage)
		return nil
	}

	fmt.Fprintf(out, "\n%sAvailable Commands:%s\n", display.Cyan, display.Reset)
	for _, g := range r.groups {
		fmt.Fprintf(out, "\n%s%s:%s\n", display.Yellow, g.title, display.Reset)
		for _, name := range g.names {
			cmd := r.commands[name]
			shortPart := "    "
			if cmd.ShortName != "" {
				shortPart = fmt.Sprintf("[%s%s%s] ", display.Cyan, cmd.ShortName, display.Reset)
			}
			fmt.Fprintf(out, "  %s%-10s %s\n", shortPart, cmd.Name, cmd.Description)
		}
	}

	fmt.Fprintf(out, "\nType 'help <command>' for detailed usage\n")
	if s.GetMatch() == nil {
		fmt.Fprintf(out, "Add '-v' to any command for verbose output\n")
	}
	return nil
}

func exitHandler(s Session, args []string) error {
	fmt.Fprintf(s.Out(), "%sGoodbye!%s\n", display.Cyan, display.Reset)
	return ErrExit
}
