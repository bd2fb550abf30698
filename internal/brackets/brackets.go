// Package brackets implements the span markup shared between the chunker,
// the ranking prompt and the corruption rounds.
//
// Grammar (spans never nest and never overlap):
//
//	text      = { plain | target | protected }
//	target    = "[" term "]"      span selected for corruption
//	protected = "{{" term "}}"    span that must be reproduced verbatim
//	term      = one or more characters, none of "[", "]", "{{", "}}"
package brackets

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/GiovanniGatti/trutheval/internal/textutil"
)

var (
	// ErrUnbalanced is returned when an opening or closing marker has no partner.
	ErrUnbalanced = eris.New("brackets: unbalanced marker")
	// ErrNested is returned when a span opens inside another span.
	ErrNested = eris.New("brackets: nested span")
	// ErrEmpty is returned for a span with no content.
	ErrEmpty = eris.New("brackets: empty span")
)

// Kind classifies a parsed segment.
type Kind int

const (
	// Plain is unmarked text.
	Plain Kind = iota
	// Target is a "[term]" span.
	Target
	// Protected is a "{{term}}" span.
	Protected
)

// Segment is one piece of a parsed text.
type Segment struct {
	Kind Kind
	Text string
}

// Parse splits text into plain, target and protected segments.
func Parse(text string) ([]Segment, error) {
	var segs []Segment
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			segs = append(segs, Segment{Kind: Plain, Text: plain.String()})
			plain.Reset()
		}
	}

	for i := 0; i < len(text); {
		rest := text[i:]
		switch {
		case strings.HasPrefix(rest, "{{"):
			term, width, err := scanSpan(rest[2:], "}}", i)
			if err != nil {
				return nil, err
			}
			flush()
			segs = append(segs, Segment{Kind: Protected, Text: term})
			i += 2 + width
		case rest[0] == '[':
			term, width, err := scanSpan(rest[1:], "]", i)
			if err != nil {
				return nil, err
			}
			flush()
			segs = append(segs, Segment{Kind: Target, Text: term})
			i += 1 + width
		case rest[0] == ']' || strings.HasPrefix(rest, "}}"):
			return nil, eris.Wrapf(ErrUnbalanced, "closing marker at offset %d", i)
		default:
			plain.WriteByte(rest[0])
			i++
		}
	}
	flush()
	return segs, nil
}

// scanSpan reads a term up to the closing marker. It returns the term and
// the number of bytes consumed including the closing marker.
func scanSpan(s, closing string, offset int) (string, int, error) {
	end := strings.Index(s, closing)
	if end < 0 {
		return "", 0, eris.Wrapf(ErrUnbalanced, "span opened at offset %d is never closed", offset)
	}
	term := s[:end]
	if HasMarkers(term) {
		return "", 0, eris.Wrapf(ErrNested, "span opened at offset %d", offset)
	}
	if term == "" {
		return "", 0, eris.Wrapf(ErrEmpty, "span at offset %d", offset)
	}
	return term, end + len(closing), nil
}

// Render encodes segments back into marked-up text.
func Render(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		switch s.Kind {
		case Target:
			b.WriteString("[" + s.Text + "]")
		case Protected:
			b.WriteString("{{" + s.Text + "}}")
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// HasMarkers reports whether text contains any span marker, balanced or not.
func HasMarkers(text string) bool {
	return strings.ContainsAny(text, "[]") || strings.Contains(text, "{{") || strings.Contains(text, "}}")
}

// Validate reports whether text follows the grammar.
func Validate(text string) error {
	_, err := Parse(text)
	return err
}

// Spans returns the target terms of text in order of appearance.
func Spans(text string) ([]string, error) {
	segs, err := Parse(text)
	if err != nil {
		return nil, err
	}
	var terms []string
	for _, s := range segs {
		if s.Kind == Target {
			terms = append(terms, s.Text)
		}
	}
	return terms, nil
}

// Annotate suffixes every target span with its zero-based position:
// "[term]" becomes "[term:i]".
func Annotate(text string) (string, error) {
	segs, err := Parse(text)
	if err != nil {
		return "", err
	}
	idx := 0
	for i := range segs {
		if segs[i].Kind != Target {
			continue
		}
		segs[i].Text += ":" + strconv.Itoa(idx)
		idx++
	}
	return Render(segs), nil
}

// Protect keeps "[term]" for spans whose lowercase form is in allowed and
// turns every other target span into "{{term}}". Each allowed entry is
// consumed by its first match so a repeated term is only selected as many
// times as it was allowed. Spans already protected stay protected.
func Protect(text string, allowed []string) (string, error) {
	segs, err := Parse(text)
	if err != nil {
		return "", err
	}
	budget := make(map[string]int, len(allowed))
	for _, a := range allowed {
		budget[textutil.Lower(a)]++
	}
	for i := range segs {
		if segs[i].Kind != Target {
			continue
		}
		key := textutil.Lower(segs[i].Text)
		if budget[key] > 0 {
			budget[key]--
			continue
		}
		segs[i].Kind = Protected
	}
	return Render(segs), nil
}

// Restore turns protected spans back into target spans, the inverse of the
// protection applied by Protect.
func Restore(text string) (string, error) {
	segs, err := Parse(text)
	if err != nil {
		return "", err
	}
	for i := range segs {
		if segs[i].Kind == Protected {
			segs[i].Kind = Target
		}
	}
	return Render(segs), nil
}

// Strip removes every marker and keeps the span contents.
func Strip(text string) (string, error) {
	segs, err := Parse(text)
	if err != nil {
		return "", err
	}
	for i := range segs {
		segs[i].Kind = Plain
	}
	return Render(segs), nil
}
