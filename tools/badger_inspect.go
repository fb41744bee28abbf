package main

import (
	"flag"
	"fmt"
	"ftp-lab/domain"
	"ftp-lab/repositories"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dustin/go-humanize"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// badger_inspect prints the content of a client ledger or of the server
// account store as a table.
func main() {
	dbPath := flag.String("db", "./.ftp-ledger", "path to the badger directory")
	kind := flag.String("kind", "ledger", "what to dump: ledger or users")
	scope := flag.String("scope", "", "ledger scope (<addr>/<user>), empty for all")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	switch *kind {
	case "ledger":
		err = dumpLedger(os.Stdout, repositories.NewLedgerRepository(db, logs.GetLoggerFromString("ERROR")), *scope)
	case "users":
		err = dumpUsers(os.Stdout, repositories.NewUserRepository(db))
	default:
		err = fmt.Errorf("unknown kind %q", *kind)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func newTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func dumpLedger(out io.Writer, ledger repositories.ILedgerRepository, scope string) error {
	entries, err := ledger.List(scope)
	if err != nil {
		return err
	}

	table := newTable(out, []string{"Scope", "Destination", "Expected", "On disk", "Progress", "Partial file", "Since"})
	for _, e := range entries {
		c := domain.ResumeCandidate{Entry: e, Received: -1}
		onDisk, progress := "missing", "-"
		if info, err := os.Stat(e.PartialPath); err == nil {
			c.Received = info.Size()
			onDisk = humanize.Bytes(uint64(c.Received))
			progress = strconv.Itoa(c.Percent()) + "%"
		}
		table.Append([]string{
			e.Scope,
			e.Destination,
			humanize.Bytes(uint64(e.ExpectedSize)),
			onDisk,
			progress,
			e.PartialPath,
			humanize.Time(e.CreatedAt),
		})
	}
	table.Render()
	return nil
}

func dumpUsers(out io.Writer, users repositories.IUserRepository) error {
	list, err := users.ListUsers()
	if err != nil {
		return err
	}

	table := newTable(out, []string{"User", "Display name", "Hash", "Created"})
	for _, u := range list {
		hash := u.PasswordHash
		if i := strings.LastIndex(hash, "$"); i > 0 {
			hash = hash[:i] + "$…"
		}
		table.Append([]string{u.Username, u.DisplayName, hash, u.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	table.Render()
	return nil
}

// openDB opens read-only so a running client or server keeps its lock.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
