// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package failure groups the fatal errors of many simulation runs
// into classes that differ only in their numbers.
package failure

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// A Failure is one fatal error from one run.
type Failure struct {
	// Message is the error text.
	Message string

	// Where describes the instruction that failed, if known.
	Where string
}

func (f Failure) String() string {
	if f.Where == "" {
		return f.Message
	}
	return f.Where + ": " + f.Message
}

// numberWords matches words that consist of both letters and digits.
// We accept any Unicode letter, but only digits 0-9, and match the
// whole word to catch things like register and thread names.
var numberWords = regexp.MustCompile(`\pL*[0-9][\pL0-9]*`)

func canonicalize(s string) string {
	if strings.IndexAny(s, "0123456789") < 0 {
		return s
	}
	return numberWords.ReplaceAllString(s, "…")
}

func fields(s string) []string {
	out := []string{}
	for len(s) > 0 {
		next := numberWords.FindStringIndex(s)
		if next == nil {
			out = append(out, s)
			break
		}
		if next[0] > 0 {
			out = append(out, s[:next[0]])
		}
		out = append(out, s[next[0]:next[1]])
		s = s[next[1]:]
	}
	return out
}

// merge returns the fields common to every string in ss, with the
// others replaced by "…". All of ss must canonicalize to the same
// string.
func merge(ss []string) string {
	fs := fields(ss[0])
	for _, s := range ss[1:] {
		nfs := fields(s)
		for i, f := range fs {
			if f != nfs[i] {
				fs[i] = "…"
			}
		}
	}
	return strings.Join(fs, "")
}

// Classify groups a set of failures in to canonicalized failure
// classes. The returned map maps from each failure class to the
// indexes of the input failures in that class. Each input failure
// will be in exactly one failure class.
func Classify(fs []*Failure) map[Failure][]int {
	canon := map[Failure][]int{}
	for i, f := range fs {
		key := Failure{canonicalize(f.Message), canonicalize(f.Where)}
		canon[key] = append(canon[key], i)
	}

	// De-canonicalize fields that all of the failures in a class
	// have in common.
	out := make(map[Failure][]int, len(canon))
	for _, class := range canon {
		msgs := make([]string, len(class))
		wheres := make([]string, len(class))
		for i, fi := range class {
			msgs[i], wheres[i] = fs[fi].Message, fs[fi].Where
		}
		out[Failure{merge(msgs), merge(wheres)}] = class
	}
	return out
}

// A Class is a failure class and the number of failures in it.
type Class struct {
	Failure
	Count int
}

// Summarize classifies fs and returns the classes ordered from most
// to least frequent.
func Summarize(fs []*Failure) []Class {
	var out []Class
	for f, idxs := range Classify(fs) {
		out = append(out, Class{f, len(idxs)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Failure.String() < out[j].Failure.String()
	})
	return out
}

func (c Class) String() string {
	return fmt.Sprintf("%d× %v", c.Count, c.Failure)
}
