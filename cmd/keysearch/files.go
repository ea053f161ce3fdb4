package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dshills/keysearch/internal/document"
	"github.com/dshills/keysearch/internal/scan"
)

// stdinName is the path that stands for standard input.
const stdinName = "-"

// inputs returns the files to work on; no files means standard input.
func inputs(files []string) []string {
	if len(files) == 0 {
		return []string{stdinName}
	}
	return files
}

// scanOptions returns the scan section as scan.Options.
func (e *env) scanOptions(recursive bool) scan.Options {
	sc := e.cfg.Scan()
	return scan.Options{
		Recursive:   recursive,
		Include:     sc.Include,
		Exclude:     sc.Exclude,
		MaxFileSize: sc.MaxFileSize,
	}
}

// expand turns the command line files into the files to work on,
// walking directories when recursive is set.
func (e *env) expand(files []string, recursive bool) ([]string, error) {
	opts := e.scanOptions(recursive)
	var out []string
	for _, p := range inputs(files) {
		if p == stdinName {
			out = append(out, p)
			continue
		}
		found, err := scan.Expand([]string{p}, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	e.log.Debug("%d files to search", len(out))
	return out, nil
}

// readDocument loads path, or standard input for "-". Files over the
// size limit and binary files fail with an error scan.Skippable accepts.
func (e *env) readDocument(path string) (*document.Document, error) {
	var (
		data []byte
		err  error
	)
	if path == stdinName {
		data, err = io.ReadAll(e.stdin)
	} else {
		data, err = scan.Read(path, e.scanOptions(false))
	}
	if err != nil {
		if scan.Skippable(err) {
			return nil, err
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return document.Parse(string(data)), nil
}

// skip reports whether err only means path should be left out, logging it.
func (e *env) skip(err error) bool {
	if !scan.Skippable(err) {
		return false
	}
	e.log.Info("skipping %v", err)
	return true
}

// writeDocument stores doc at path keeping its permissions, or writes it
// to standard output for "-".
func (e *env) writeDocument(path string, doc *document.Document) error {
	if path == stdinName {
		_, err := io.WriteString(e.stdout, doc.String())
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".keysearch-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.WriteString(tmp, doc.String()); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
