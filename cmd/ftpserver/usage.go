package main

import (
	"fmt"
	"ftp-lab/services"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/disk"
)

type accountLister interface {
	List() ([]services.Account, error)
}

// reportUsage prints the volume holding the home base directory, then the
// bytes stored under each account home.
func reportUsage(svc accountLister, homeBaseDir string, out io.Writer) (int, error) {
	stat, err := disk.Usage(homeBaseDir)
	if err != nil {
		return exitRuntime, fmt.Errorf("disk usage of %s: %w", homeBaseDir, err)
	}
	fmt.Fprintf(out, "%s: %s used of %s (%.1f%%), %s free\n",
		homeBaseDir,
		humanize.IBytes(stat.Used),
		humanize.IBytes(stat.Total),
		stat.UsedPercent,
		humanize.IBytes(stat.Free))

	accounts, err := svc.List()
	if err != nil {
		return exitRuntime, err
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"User", "Files", "Size"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, a := range accounts {
		files, size, err := treeSize(a.HomeRoot)
		if err != nil {
			return exitRuntime, err
		}
		table.Append([]string{a.Username, fmt.Sprint(files), humanize.IBytes(uint64(size))})
	}
	table.Render()
	return exitOK, nil
}

// treeSize counts regular files under root. A missing root is empty.
func treeSize(root string) (int, int64, error) {
	var files int
	var size int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return fs.SkipAll
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files++
		size += info.Size()
		return nil
	})
	return files, size, err
}
