package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAvailableName(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tests := []struct {
		name     string
		existing []string
		upload   string
		want     string
	}{
		{name: "should keep a free name", upload: "report.pdf", want: "report.pdf"},
		{name: "should stamp before the extension", existing: []string{"report.pdf"}, upload: "report.pdf", want: "report_1700000000.pdf"},
		{name: "should stamp before the last extension only", existing: []string{"a.tar.gz"}, upload: "a.tar.gz", want: "a.tar_1700000000.gz"},
		{name: "should append the stamp without extension", existing: []string{"notes"}, upload: "notes", want: "notes_1700000000"},
		{name: "should treat a leading dot as part of the name", existing: []string{".bashrc"}, upload: ".bashrc", want: ".bashrc_1700000000"},
		{
			name:     "should add a counter when the stamped name is taken",
			existing: []string{"notes", "notes_1700000000", "notes_1700000000_1"},
			upload:   "notes",
			want:     "notes_1700000000_2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			dir := t.TempDir()
			for _, f := range tt.existing {
				req.NoError(os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644))
			}

			got := availableName(filepath.Join(dir, tt.upload), now)

			req.Equal(filepath.Join(dir, tt.want), got)
		})
	}
}

func TestBaseName(t *testing.T) {
	req := require.New(t)
	req.Equal("a.txt", baseName("/home/me/a.txt"))
	req.Equal("a.txt", baseName(`C:\Users\me\a.txt`))
	req.Equal("a.txt", baseName("a.txt"))
	req.Equal("", baseName("dir/"))
}
