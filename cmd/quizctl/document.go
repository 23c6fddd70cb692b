package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/stemsi/quizhub-backend/internal/codec"
	"golang.org/x/term"
)

// ─── convert / validate ─────────────────────────────────────────────

func runConvert(args []string) error {
	fs := newFlagSet("convert")
	in := fs.String("in", "", "input file (required)")
	out := fs.String("out", "", "output file, stdout when empty")
	from := fs.String("from", "", "input format, detected from -in when empty")
	to := fs.String("to", "", "output format, detected from -out when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("-in is required")
	}

	src, err := resolveFormat(*from, *in)
	if err != nil {
		return err
	}
	dst, err := resolveFormat(*to, *out)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return err
	}
	converted, err := convert(src, dst, data)
	if err != nil {
		return err
	}
	return writeOutput(*out, converted)
}

func runValidate(args []string) error {
	fs := newFlagSet("validate")
	format := fs.String("format", "", "input format, detected from the file name when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("at least one file is required")
	}

	failed := 0
	for _, path := range fs.Args() {
		f, err := resolveFormat(*format, path)
		if err == nil {
			var data []byte
			if data, err = os.ReadFile(path); err == nil {
				var doc codec.Document
				if doc, err = decodeValid(f, data); err == nil {
					fmt.Println(describe(path, len(data), doc))
					continue
				}
			}
		}
		failed++
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files invalid", failed, fs.NArg())
	}
	return nil
}

// resolveFormat prefers an explicit name and falls back to the file extension.
// An empty path without an explicit name means JSON.
func resolveFormat(name, path string) (codec.Format, error) {
	if name != "" {
		return codec.ParseFormat(name)
	}
	if path == "" {
		return codec.FormatJSON, nil
	}
	return codec.DetectFormat(path)
}

func decodeValid(f codec.Format, data []byte) (codec.Document, error) {
	doc, err := codec.Decode(f, data)
	if err != nil {
		return codec.Document{}, err
	}
	if err := doc.Validate(); err != nil {
		return codec.Document{}, err
	}
	return doc, nil
}

// convert decodes, validates and re-encodes a document. Exported metadata
// (exportedAt, version) is carried over when present.
func convert(src, dst codec.Format, data []byte) ([]byte, error) {
	doc, err := decodeValid(src, data)
	if err != nil {
		return nil, err
	}
	if doc.Version == "" {
		doc.Version = codec.FormatVersion
	}
	return codec.Encode(dst, doc)
}

func describe(path string, size int, doc codec.Document) string {
	var points float64
	for _, q := range doc.Questions {
		points += q.Points
	}
	return fmt.Sprintf("%s (%s): ok, %q, %s, %g points",
		path, humanize.Bytes(uint64(size)), doc.Quiz.Title,
		humanize.Comma(int64(len(doc.Questions)))+" questions", points)
}

func writeOutput(path string, data []byte) error {
	if path != "" {
		return os.WriteFile(path, data, 0o644)
	}
	return writeStdout(os.Stdout, data)
}

// writeStdout keeps the shell prompt on its own line when printing to a terminal.
func writeStdout(w *os.File, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return err
	}
	if term.IsTerminal(int(w.Fd())) && !strings.HasSuffix(string(data), "\n") {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}
