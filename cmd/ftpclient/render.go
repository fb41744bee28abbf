package main

import (
	"fmt"
	"ftp-lab/domain"
	"ftp-lab/transfer"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

const (
	barWidth   = 50
	timeLayout = "2006-01-02 15:04:05"
)

// renderEntries prints a listing with a <DIR> marker for directories.
func renderEntries(out io.Writer, entries []domain.FileEntry) {
	table := tablewriter.NewWriter(out)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	for _, e := range entries {
		kind, size := "", humanize.Bytes(uint64(e.Size))
		if e.IsDir {
			kind, size = "<DIR>", ""
		}
		modified := ""
		if !e.ModTime.IsZero() {
			modified = e.ModTime.Local().Format(timeLayout)
		}
		table.Append([]string{modified, kind, size, e.Name})
	}
	table.Render()
}

// newProgressBar draws "[####    ]  42%" on a single line.
func newProgressBar(out io.Writer) transfer.Progress {
	return func(done, total int64) {
		p := transfer.Percent(done, total)
		fmt.Fprintf(out, "\r[%-*s] %3d%%", barWidth, strings.Repeat("#", p*barWidth/100), p)
		if p >= 100 {
			fmt.Fprintln(out)
		}
	}
}
