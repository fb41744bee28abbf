package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/jung-kurt/gofpdf"
)

// gensample fills a directory (typically a user's home) with files of
// several types and one large binary, handy to exercise transfers and resume.
func main() {
	dir := flag.String("dir", "./home/sample", "destination directory")
	size := flag.Int64("size", 8<<20, "size in bytes of the large binary file")
	flag.Parse()

	if err := generate(*dir, *size, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "gensample: %v\n", err)
		os.Exit(1)
	}
}

func generate(dir string, size int64, out io.Writer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	steps := []struct {
		name string
		gen  func(string) error
	}{
		{"report.pdf", genPDF},
		{"capture.png", genImage},
		{"notes.txt", genText},
		{"big.bin", func(path string) error { return genBinary(path, size) }},
		{"empty.dat", func(path string) error { return os.WriteFile(path, nil, 0o644) }},
	}
	for _, s := range steps {
		path := filepath.Join(dir, s.name)
		if err := s.gen(path); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-12s %s\n", s.name, humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

func genPDF(path string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 20)
	pdf.Cell(40, 20, "ftp-lab sample")
	pdf.Ln(20)
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 10, "Generated to exercise downloads, uploads and resumed transfers.", "", "", false)
	return pdf.OutputFileAndClose(path)
}

func genImage(path string) error {
	width, height := 640, 480
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{uint8(x % 255), uint8(y % 255), 200, 0xff})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func genText(path string) error {
	return os.WriteFile(path, []byte("get me, put me, resume me\n"), 0o644)
}

// genBinary writes size random bytes.
func genBinary(path string, size int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.CopyN(f, rand.Reader, size)
	return err
}
