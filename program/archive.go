// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package program

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"golang.org/x/tools/txtar"
)

// A Litmus is a multi-threaded test program.
type Litmus struct {
	// Comment is the free text before the first thread.
	Comment string
	Names   []string
	Threads []*Program
}

// ParseArchive parses a txtar archive in which every file is one
// thread's program, in thread order.
func ParseArchive(data []byte) (*Litmus, error) {
	ar := txtar.Parse(data)
	if len(ar.Files) == 0 {
		return nil, fmt.Errorf("archive has no threads")
	}
	l := &Litmus{Comment: strings.TrimSpace(string(ar.Comment))}
	for _, f := range ar.Files {
		p, err := Parse(bytes.NewReader(f.Data))
		if err != nil {
			if perr, ok := err.(*ParseError); ok {
				perr.File = f.Name
			}
			return nil, err
		}
		l.Names = append(l.Names, f.Name)
		l.Threads = append(l.Threads, p)
	}
	return l, nil
}

// ParseArchiveFile parses the txtar archive in the named file.
func ParseArchiveFile(path string) (*Litmus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l, err := ParseArchive(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Format returns l as a txtar archive.
func (l *Litmus) Format() []byte {
	ar := &txtar.Archive{}
	if l.Comment != "" {
		ar.Comment = []byte(l.Comment + "\n")
	}
	for i, p := range l.Threads {
		name := fmt.Sprintf("t%d", i)
		if i < len(l.Names) {
			name = l.Names[i]
		}
		ar.Files = append(ar.Files, txtar.File{Name: name, Data: []byte(p.String())})
	}
	return txtar.Format(ar)
}
