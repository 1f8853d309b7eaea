// Package query expands boolean-OR search specs into concrete query strings.
//
// A spec is either a flat list of terms separated by " OR ", or free text
// containing parenthesised groups. Every group holding " OR " is expanded in
// the order it appears, so later groups multiply the strings produced by
// earlier ones:
//
//	eng (java OR python) (remote OR hybrid)
//
// yields "eng java remote", "eng java hybrid", "eng python remote" and
// "eng python hybrid". Groups without " OR " are kept as literal text.
package query

import (
	"errors"
	"fmt"
	"strings"
)

// Separator splits alternatives, both at top level and inside groups.
const Separator = " OR "

var (
	ErrUnbalanced = errors.New("unbalanced parentheses")
	ErrNested     = errors.New("nested parentheses are not supported")
)

// Group is one parenthesised span of a spec.
type Group struct {
	Text   string // including the parentheses
	Offset int
}

// HasOR reports whether the group is expanded or kept literally.
func (g Group) HasOR() bool {
	return strings.Contains(g.inner(), Separator)
}

// Alternatives returns the cleaned terms of an OR group.
func (g Group) Alternatives() []string {
	return splitTerms(g.inner())
}

func (g Group) inner() string {
	return g.Text[1 : len(g.Text)-1]
}

// Groups returns the parenthesised groups of spec in order of appearance.
func Groups(spec string) ([]Group, error) {
	var groups []Group
	open := -1
	for i, r := range spec {
		switch r {
		case '(':
			if open >= 0 {
				return nil, fmt.Errorf("%w: '(' at offset %d inside group opened at %d", ErrNested, i, open)
			}
			open = i
		case ')':
			if open < 0 {
				return nil, fmt.Errorf("%w: ')' at offset %d has no opening '('", ErrUnbalanced, i)
			}
			groups = append(groups, Group{Text: spec[open : i+1], Offset: open})
			open = -1
		}
	}
	if open >= 0 {
		return nil, fmt.Errorf("%w: '(' at offset %d is never closed", ErrUnbalanced, open)
	}
	return groups, nil
}

// Expand turns spec into the ordered list of concrete queries. The result is
// deterministic for a given spec; an empty spec yields an empty list.
func Expand(spec string) ([]string, error) {
	groups, err := Groups(spec)
	if err != nil {
		return nil, err
	}

	if len(groups) == 0 {
		return splitTerms(spec), nil
	}

	expandable := false
	for _, g := range groups {
		if g.HasOR() {
			expandable = true
			break
		}
	}
	if !expandable {
		return collapse([]string{spec}), nil
	}

	result := []string{spec}
	for _, g := range groups {
		if !g.HasOR() {
			continue
		}
		alts := g.Alternatives()
		if len(alts) == 0 {
			// "( OR )" contributes nothing; drop the group text.
			alts = []string{""}
		}
		next := make([]string, 0, len(result)*len(alts))
		for _, s := range result {
			for _, alt := range alts {
				next = append(next, strings.Replace(s, g.Text, alt, 1))
			}
		}
		result = next
	}

	return collapse(result), nil
}

// splitTerms splits on the OR separator, strips whitespace and surrounding
// quotes, and drops empty terms.
func splitTerms(s string) []string {
	terms := []string{}
	for _, part := range strings.Split(s, Separator) {
		part = strings.TrimSpace(strings.Trim(strings.TrimSpace(part), `"'`))
		if part != "" {
			terms = append(terms, part)
		}
	}
	return terms
}

func collapse(queries []string) []string {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.Join(strings.Fields(q), " ")
		if q != "" {
			out = append(out, q)
		}
	}
	return out
}
