// Package scan expands command line paths into the files to search and
// runs a per-file job over them with a bounded number of workers.
package scan

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	stdpath "path"
	"path/filepath"
	"strings"
)

// Errors returned while expanding and reading files.
var (
	ErrIsDirectory  = errors.New("is a directory")
	ErrBinaryFile   = errors.New("binary file")
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")
)

// Options controls expansion and reading.
type Options struct {
	// Recursive walks directories instead of rejecting them.
	Recursive bool
	// Include keeps only files matching one of these globs when non-empty.
	Include []string
	// Exclude skips files and whole directories matching any of these globs.
	Exclude []string
	// MaxFileSize makes Read reject larger files. Zero means no limit.
	MaxFileSize int64
}

// Expand returns the files named by paths in order. Directories are
// walked in lexical order when Recursive is set. Include and Exclude
// filter walked files only; a file named explicitly is always kept.
func Expand(paths []string, opts Options) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		if !opts.Recursive {
			return nil, fmt.Errorf("%s: %w", p, ErrIsDirectory)
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != p && matchAny(opts.Exclude, path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if len(opts.Include) > 0 && !matchAny(opts.Include, path) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// Read returns the content of path, rejecting files over the size limit
// and files that look binary.
func Read(path string, opts Options) ([]byte, error) {
	if opts.MaxFileSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.Size() > opts.MaxFileSize {
			return nil, fmt.Errorf("%s: %w", path, ErrFileTooLarge)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if IsBinary(data) {
		return nil, fmt.Errorf("%s: %w", path, ErrBinaryFile)
	}
	return data, nil
}

// IsBinary guesses whether content is binary from its first 8KB: any NUL
// byte, or more than 10% control characters other than whitespace.
func IsBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	sample := content[:min(len(content), 8192)]
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	nonText := 0
	for _, b := range sample {
		if b < 32 && b != '\t' && b != '\n' && b != '\r' {
			nonText++
		}
	}
	return float64(nonText)/float64(len(sample)) > 0.1
}

// Skippable reports whether err only means the file is not worth
// searching, as opposed to a failure to read it.
func Skippable(err error) bool {
	return errors.Is(err, ErrBinaryFile) || errors.Is(err, ErrFileTooLarge)
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if MatchGlob(p, path) {
			return true
		}
	}
	return false
}

// MatchGlob matches a path against a glob. Patterns without a slash match
// the base name. "**" spans any number of directories, so "**/vendor/**"
// matches anything under a vendor directory.
func MatchGlob(pattern, filePath string) bool {
	pattern = filepath.ToSlash(pattern)
	filePath = "/" + strings.TrimPrefix(filepath.ToSlash(filePath), "./")

	if strings.Contains(pattern, "**") {
		parts := strings.Split(pattern, "**")
		switch {
		case len(parts) == 3 && parts[0] == "" && parts[2] == "":
			middle := parts[1]
			return strings.Contains(filePath+"/", middle)
		case len(parts) == 2:
			prefix := strings.Trim(parts[0], "/")
			suffix := strings.TrimPrefix(parts[1], "/")
			if prefix != "" && !strings.HasPrefix(filePath, "/"+prefix+"/") {
				return false
			}
			if suffix == "" {
				return true
			}
			// Match the suffix against every trailing run of segments.
			segs := strings.Split(strings.TrimPrefix(filePath, "/"), "/")
			for i := range segs {
				if ok, _ := stdpath.Match(suffix, strings.Join(segs[i:], "/")); ok {
					return true
				}
			}
			return false
		}
	}

	base := filePath[strings.LastIndex(filePath, "/")+1:]
	if ok, _ := stdpath.Match(pattern, base); ok {
		return true
	}
	ok, _ := stdpath.Match(strings.TrimPrefix(pattern, "/"), strings.TrimPrefix(filePath, "/"))
	return ok
}
