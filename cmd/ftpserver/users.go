package main

import (
	"bufio"
	"flag"
	"fmt"
	"ftp-lab/auth"
	"ftp-lab/services"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"
)

type accountManager interface {
	Register(req auth.RegisterRequest) (services.Account, error)
	Delete(username string) (string, error)
	List() ([]services.Account, error)
}

func createUser(svc accountManager, args []string, in *os.File, out io.Writer) (int, error) {
	fs := flag.NewFlagSet("createuser", flag.ContinueOnError)
	display := fs.String("display", "", "display name (defaults to the username)")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return exitConfig, err
	}
	if fs.NArg() != 1 {
		return exitConfig, fmt.Errorf("createuser expects exactly one username")
	}
	username := fs.Arg(0)

	if *password == "" {
		p, err := promptNewPassword(in, out)
		if err != nil {
			return exitRuntime, err
		}
		*password = p
	}

	account, err := svc.Register(auth.RegisterRequest{Username: username, DisplayName: *display, Password: *password})
	if err != nil {
		return exitRuntime, fmt.Errorf("create %s: %w", username, err)
	}
	fmt.Fprintln(out, color.New(color.FgGreen).Render(fmt.Sprintf("User %s created, home %s", account.Username, account.HomeRoot)))
	return exitOK, nil
}

// promptNewPassword reads the password twice, hidden when in is a terminal.
func promptNewPassword(in *os.File, out io.Writer) (string, error) {
	lines := bufio.NewReader(in)
	read := func(label string) (string, error) {
		fmt.Fprint(out, label)
		if term.IsTerminal(int(in.Fd())) {
			b, err := term.ReadPassword(int(in.Fd()))
			fmt.Fprintln(out)
			return string(b), err
		}
		line, err := lines.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	first, err := read("Password: ")
	if err != nil {
		return "", err
	}
	second, err := read("Confirm password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("passwords do not match")
	}
	return first, nil
}

func deleteUser(svc accountManager, args []string, out io.Writer) (int, error) {
	if len(args) != 1 {
		return exitConfig, fmt.Errorf("deleteuser expects exactly one username")
	}
	archived, err := svc.Delete(args[0])
	if err != nil {
		return exitRuntime, fmt.Errorf("delete %s: %w", args[0], err)
	}
	if archived == "" {
		fmt.Fprintf(out, "User %s deleted\n", args[0])
	} else {
		fmt.Fprintf(out, "User %s deleted, home archived to %s\n", args[0], archived)
	}
	return exitOK, nil
}

func listUsers(svc accountManager, out io.Writer) (int, error) {
	accounts, err := svc.List()
	if err != nil {
		return exitRuntime, err
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"User", "Display name", "Home", "Created"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, a := range accounts {
		table.Append([]string{a.Username, a.DisplayName, a.HomeRoot, humanize.Time(a.CreatedAt)})
	}
	table.Render()
	return exitOK, nil
}
