package main

import (
	"bufio"
	"fmt"
	"ftp-lab/client"
	"ftp-lab/domain"
	"ftp-lab/errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"golang.org/x/term"
)

const help = `commands:
  get <file>     download a file from the current directory
  put <path>     upload a local file into the current directory
  ls             list the current directory
  cd <dir>       change directory ("..", "/" for home)
  mkdir <name>   create a directory
  rm <name>      remove a file or an empty directory
  exit           leave
`

// shell is the interactive front end of a client session.
type shell struct {
	session *client.Session
	in      *bufio.Reader
	tty     *os.File
	out     io.Writer
	colours bool
}

func newShell(session *client.Session, in *bufio.Reader, tty *os.File, out io.Writer, colours bool) *shell {
	return &shell{session: session, in: in, tty: tty, out: out, colours: colours}
}

func (s *shell) paint(c color.Color, text string) string {
	if !s.colours {
		return text
	}
	return color.New(c).Render(text)
}

func (s *shell) readLine(label string) (string, error) {
	fmt.Fprint(s.out, label)
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *shell) readPassword(label string) (string, error) {
	if s.tty != nil && term.IsTerminal(int(s.tty.Fd())) {
		fmt.Fprint(s.out, label)
		b, err := term.ReadPassword(int(s.tty.Fd()))
		fmt.Fprintln(s.out)
		return string(b), err
	}
	return s.readLine(label)
}

// login uses the configured credentials first, then prompts.
func (s *shell) login(username, password string) error {
	return s.session.Login(func(attempt int) (string, string, error) {
		if attempt > 1 {
			fmt.Fprintln(s.out, s.paint(color.FgRed, domain.StatusAuthFailed.Message()))
		}
		if attempt == 1 && username != "" && password != "" {
			return username, password, nil
		}
		u, err := s.readLine("username: ")
		if err != nil {
			return "", "", err
		}
		p, err := s.readPassword("password: ")
		if err != nil {
			return "", "", err
		}
		return u, p, nil
	})
}

func (s *shell) reportInconsistencies() {
	found, err := s.session.Reconcile()
	if err != nil {
		fmt.Fprintln(s.out, s.paint(color.FgYellow, fmt.Sprintf("ledger check failed: %v", err)))
		return
	}
	for _, f := range found {
		fmt.Fprintln(s.out, s.paint(color.FgYellow, fmt.Sprintf("warning: %s: %s", f.Path, f.Reason)))
	}
}

// offerResume lists unfinished downloads until none remain or the user exits.
func (s *shell) offerResume() error {
	for {
		candidates, err := s.session.Candidates()
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return nil
		}

		fmt.Fprintln(s.out, "Unfinished downloads:")
		for i, c := range candidates {
			fmt.Fprintf(s.out, "%d. %s %d %d %d%%\n", i+1, c.Entry.Destination, c.Entry.ExpectedSize, c.Received, c.Percent())
		}
		line, err := s.readLine("resume <index>, drop <index> or exit: ")
		if err != nil {
			return nil
		}

		verb, arg := parseLine(line)
		if _, err := strconv.Atoi(verb); err == nil {
			verb, arg = "resume", verb
		}
		switch verb {
		case "exit":
			return nil
		case "resume", "drop":
			idx, err := strconv.Atoi(arg)
			if err != nil || idx < 1 || idx > len(candidates) {
				fmt.Fprintln(s.out, "command error")
				continue
			}
			if err := s.resumeOrDrop(verb, candidates[idx-1]); err != nil {
				if isFatal(err) {
					return err
				}
				s.printError(err)
			}
		default:
			fmt.Fprintln(s.out, "command error")
		}
	}
}

func (s *shell) resumeOrDrop(verb string, c domain.ResumeCandidate) error {
	if verb == "drop" {
		return s.session.Forget(c)
	}
	local, err := s.session.Resume(c, s.progressBar())
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "saved %s\n", local)
	return nil
}

func (s *shell) prompt() string {
	text := fmt.Sprintf("[%s %s]>>: ", s.session.Username(), s.session.CurrentDir())
	return s.paint(color.FgCyan, text)
}

// loop runs commands until exit or end of input.
func (s *shell) loop() error {
	for {
		line, err := s.readLine(s.prompt())
		if err != nil {
			fmt.Fprintln(s.out)
			return nil
		}
		verb, arg := parseLine(line)
		switch verb {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := s.execute(verb, arg); err != nil {
			if isFatal(err) {
				return err
			}
			s.printError(err)
		}
	}
}

func (s *shell) execute(verb, arg string) error {
	needsArg := verb == "get" || verb == "put" || verb == "cd" || verb == "mkdir" || verb == "rm"
	if needsArg && arg == "" {
		fmt.Fprintln(s.out, "command error")
		return nil
	}

	switch verb {
	case "get":
		local, err := s.session.Get(arg, s.progressBar())
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "saved %s\n", local)
	case "put":
		if _, err := s.session.Put(arg, s.progressBar()); err != nil {
			return err
		}
	case "ls":
		entries, err := s.session.List()
		if err != nil {
			return err
		}
		renderEntries(s.out, entries)
	case "cd":
		if _, err := s.session.Cd(arg); err != nil {
			return err
		}
	case "mkdir":
		if err := s.session.Mkdir(arg); err != nil {
			return err
		}
		fmt.Fprintln(s.out, domain.StatusMkdirOK.Message())
	case "rm":
		status, err := s.session.Remove(arg)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, status.Message())
	case "help":
		fmt.Fprint(s.out, help)
	default:
		fmt.Fprintln(s.out, "command error")
	}
	return nil
}

func (s *shell) progressBar() func(done, total int64) {
	return newProgressBar(s.out)
}

func (s *shell) printError(err error) {
	fmt.Fprintln(s.out, s.paint(color.FgRed, err.Error()))
}

// isFatal reports errors after which the connection is unusable.
func isFatal(err error) bool {
	return errors.Is(err, errors.ErrConnectionLost) || errors.Is(err, io.EOF) || errors.Is(err, errors.ErrMalformedFrame)
}

// parseLine splits "verb argument"; the argument keeps inner spaces.
func parseLine(line string) (string, string) {
	line = strings.TrimSpace(line)
	verb, arg, _ := strings.Cut(line, " ")
	return strings.ToLower(verb), strings.TrimSpace(arg)
}
