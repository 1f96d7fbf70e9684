package commands

import (
	"fmt"
	"strings"
	"time"

	"chessarena/internal/client/display"
)

func (r *Registry) registerDebugCommands() {
	r.Group("Debug Commands",
		&Command{
			Name:        "health",
			ShortName:   ".",
			Description: "Check server health",
			Usage:       "health",
			Handler:     healthHandler,
		},
		&Command{
			Name:        "url",
			ShortName:   "/",
			Description: "Set API base URL",
			Usage:       "url [apiUrl]",
			Handler:     urlHandler,
		},
		&Command{
			Name:        "raw",
			ShortName:   ":",
			Description: "Send raw API request",
			Usage:       "raw <method> <path> [json-body]",
			Handler:     rawRequestHandler,
		},
	)
}

func healthHandler(s Session, args []string) error {
	resp, err := s.GetClient().Health()
	if err != nil {
		return err
	}

	out := s.Out()
	fmt.Fprintf(out, "%sServer Health:%s\n", display.Cyan, display.Reset)
	fmt.Fprintf(out, "  Status:   %s\n", resp.Status)
	t := time.Unix(resp.Time, 0)
	fmt.Fprintf(out, "  Time:     %s\n", t.Format("2006-01-02 15:04:05"))
	if resp.Storage != "" {
		fmt.Fprintf(out, "  Storage:  %s\n", resp.Storage)
	}
	fmt.Fprintf(out, "  Computer: %d game(s)\n", resp.ComputerGames)
	return nil
}

func urlHandler(s Session, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.Out(), "Current API URL: %s\n", s.GetAPIBaseURL())
		return nil
	}

	url := args[0]
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}

	s.SetAPIBaseURL(url)
	s.GetClient().SetBaseURL(url)

	fmt.Fprintf(s.Out(), "%sAPI URL set to: %s%s\n", display.Cyan, url, display.Reset)
	return nil
}

func rawRequestHandler(s Session, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: raw <method> <path> [json-body]")
	}

	method := strings.ToUpper(args[0])
	path := args[1]

	body := ""
	if len(args) > 2 {
		body = strings.Join(args[2:], " ")
	}

	return s.GetClient().RawRequest(method, path, body)
}

func clearHandler(s Session, args []string) error {
	// ANSI clear screen and cursor home
	fmt.Fprint(s.Out(), "\033[H\033[2J")
	return nil
}
