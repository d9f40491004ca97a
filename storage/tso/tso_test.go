// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tso

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/aclements/wmm/internal/prompt"
	"github.com/aclements/wmm/storage"
)

const rlx = storage.Relaxed

func TestLoadUninitialized(t *testing.T) {
	m := New(10, 2, NewSequentialPolicy(), nil)
	if got := m.Load(0, 3, rlx); got != 0 {
		t.Errorf("load of fresh cell = %d, want 0", got)
	}
}

func TestStoreBuffering(t *testing.T) {
	m := New(10, 2, NewSequentialPolicy(), nil)
	m.Store(0, 0, 42, rlx)
	if got := m.Load(0, 0, rlx); got != 42 {
		t.Errorf("t0 does not see its own store: got %d", got)
	}
	if got := m.Load(1, 0, rlx); got != 0 {
		t.Errorf("t1 sees buffered store: got %d, want 0", got)
	}
	if !m.InternalUpdate() {
		t.Fatalf("InternalUpdate with pending store returned false")
	}
	if got := m.Load(1, 0, rlx); got != 42 {
		t.Errorf("t1 after propagation loads %d, want 42", got)
	}
	if m.InternalUpdate() {
		t.Errorf("InternalUpdate with empty buffers returned true")
	}
}

func TestReadOwnNewestWrite(t *testing.T) {
	m := New(10, 2, NewSequentialPolicy(), nil)
	m.Store(0, 1, 1, rlx)
	m.Store(0, 2, 5, rlx)
	m.Store(0, 1, 2, rlx)
	if got := m.Load(0, 1, rlx); got != 2 {
		t.Errorf("load = %d, want newest buffered value 2", got)
	}
	m.InternalUpdate()
	if got := m.Load(1, 1, rlx); got != 1 {
		t.Errorf("after one propagation, t1 loads %d, want oldest store 1", got)
	}
	if got := m.Load(1, 2, rlx); got != 0 {
		t.Errorf("stores propagated out of order: t1 loads #2 = %d", got)
	}
}

func TestCompareAndSwap(t *testing.T) {
	m := New(10, 2, NewSequentialPolicy(), nil)
	m.Store(0, 0, 42, rlx)
	m.CompareAndSwap(0, 0, 42, 43, storage.SeqCst)
	if got := m.Load(1, 0, rlx); got != 43 {
		t.Errorf("after successful CAS t1 loads %d, want 43", got)
	}
	m.CompareAndSwap(1, 0, 0, 44, storage.SeqCst)
	if got := m.Load(0, 0, rlx); got != 43 {
		t.Errorf("after failed CAS load = %d, want 43", got)
	}
}

func TestFetchAndIncrementFlushes(t *testing.T) {
	m := New(10, 2, NewSequentialPolicy(), nil)
	m.Store(0, 0, 10, rlx)
	m.Store(0, 1, 7, rlx)
	m.FetchAndIncrement(0, 0, 42, rlx)
	if got := m.Load(1, 0, rlx); got != 52 {
		t.Errorf("t1 loads #0 = %d, want 52", got)
	}
	if got := m.Load(1, 1, rlx); got != 7 {
		t.Errorf("FAI did not flush whole buffer: t1 loads #1 = %d", got)
	}
}

func TestFenceFlushesOwnBuffer(t *testing.T) {
	m := New(10, 2, NewSequentialPolicy(), nil)
	m.Store(0, 0, 1, rlx)
	m.Store(1, 1, 2, rlx)
	m.Fence(0, storage.SeqCst)
	if got := m.Load(1, 0, rlx); got != 1 {
		t.Errorf("t1 loads #0 = %d after t0 fence, want 1", got)
	}
	if got := m.Load(0, 1, rlx); got != 0 {
		t.Errorf("t0 fence flushed t1's buffer")
	}
}

func TestOutOfRange(t *testing.T) {
	defer func() {
		if _, ok := recover().(*storage.AddressError); !ok {
			t.Errorf("store to #10 did not panic with *AddressError")
		}
	}()
	New(10, 1, NewSequentialPolicy(), nil).Store(0, 10, 1, rlx)
}

func TestSequentialPolicyTakesTurns(t *testing.T) {
	m := New(10, 3, NewSequentialPolicy(), nil)
	m.Store(0, 0, 1, rlx)
	m.Store(0, 0, 2, rlx)
	m.Store(2, 1, 3, rlx)
	var order []int
	for m.InternalUpdate() {
		order = append(order, int(m.mem.Load(0)), int(m.mem.Load(1)))
	}
	want := []int{1, 0, 1, 3, 2, 3}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("propagation states %v, want %v", order, want)
	}
}

func TestRandomPolicyDeterministic(t *testing.T) {
	run := func() string {
		m := New(4, 4, NewRandomPolicy(7), nil)
		for tid := 0; tid < 4; tid++ {
			m.Store(tid, tid, int32(tid+1), rlx)
		}
		var got []string
		for m.InternalUpdate() {
			got = append(got, m.mem.String())
		}
		if len(got) != 4 {
			t.Errorf("%d internal updates, want 4", len(got))
		}
		return strings.Join(got, "|")
	}
	if a, b := run(), run(); a != b {
		t.Errorf("same seed gave different schedules:\n%s\n%s", a, b)
	}
}

func TestInteractivePolicy(t *testing.T) {
	var out bytes.Buffer
	p := prompt.New(strings.NewReader("1\n"), &out)
	m := New(4, 2, NewInteractivePolicy(p), nil)
	m.Store(0, 0, 1, rlx)
	m.Store(1, 1, 2, rlx)
	if !m.InternalUpdate() {
		t.Fatalf("InternalUpdate returned false")
	}
	if got := m.mem.String(); got != "0 2 0 0" {
		t.Errorf("storage = %q, want t1's store propagated", got)
	}
	if !strings.Contains(out.String(), "b0: #0->1") {
		t.Errorf("prompt did not show buffers:\n%s", out.String())
	}
	// End of input declines the update.
	if m.InternalUpdate() {
		t.Errorf("InternalUpdate at end of input returned true")
	}
}

type fixedChooser []int

func (c *fixedChooser) Amb(n int) int {
	x := (*c)[0]
	*c = (*c)[1:]
	return x
}

func TestAmbPolicy(t *testing.T) {
	c := &fixedChooser{1}
	m := New(4, 3, NewAmbPolicy(c), nil)
	m.Store(0, 0, 1, rlx)
	m.Store(2, 2, 3, rlx)
	m.InternalUpdate()
	if got := m.mem.String(); got != "0 0 3 0" {
		t.Errorf("storage = %q, want t2's store propagated", got)
	}
	// Only one candidate left: no choice is consumed.
	m.InternalUpdate()
	if got := m.mem.String(); got != "1 0 3 0" {
		t.Errorf("storage = %q", got)
	}
}

func TestWriteState(t *testing.T) {
	m := New(3, 2, NewSequentialPolicy(), nil)
	m.Store(1, 2, 9, rlx)
	var buf bytes.Buffer
	if err := m.WriteState(&buf); err != nil {
		t.Fatal(err)
	}
	want := "Shared storage: 0 0 0\nThread buffers:\nb0: \nb1: #2->9\n"
	if buf.String() != want {
		t.Errorf("WriteState:\n%s\nwant:\n%s", buf.String(), want)
	}
}
