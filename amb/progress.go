// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package amb

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/term"
)

const resetLine = "\r\x1b[2K"

type progress struct {
	count *int64
	w     io.Writer
	stopc chan struct{}
	done  chan struct{}
}

// startProgress prints *count to standard error every 100ms until
// stopped, if standard error is a terminal.
func startProgress(count *int64) *progress {
	p := &progress{count: count, stopc: make(chan struct{}), done: make(chan struct{})}
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		close(p.done)
		return p
	}
	p.w = os.Stderr
	go p.loop()
	return p
}

func (p *progress) report(final bool) {
	fmt.Fprintf(p.w, "%s%d paths", resetLine, atomic.LoadInt64(p.count))
	if final {
		fmt.Fprintf(p.w, "\n")
	}
}

func (p *progress) loop() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	defer close(p.done)
	for {
		p.report(false)
		select {
		case <-ticker.C:
		case <-p.stopc:
			p.report(true)
			return
		}
	}
}

func (p *progress) stop() {
	if p.w != nil {
		close(p.stopc)
	}
	<-p.done
}
