// Package chunker marks the candidate factual spans of a sentence with
// "[...]" brackets.
package chunker

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/GiovanniGatti/trutheval/internal/brackets"
	"github.com/GiovanniGatti/trutheval/internal/oracle"
)

var (
	// ErrOverlap is returned when the tagged text has nested, overlapping or
	// unbalanced brackets.
	ErrOverlap = eris.New("chunker: overlapping or malformed spans")
	// ErrAltered is returned when removing the brackets does not give back
	// the original sentence.
	ErrAltered = eris.New("chunker: tagged text alters the sentence")
	// ErrMarkedInput is returned for a sentence that already contains span
	// markers, such as a "[1]" citation. No tagging of it can pass Validate.
	ErrMarkedInput = eris.New("chunker: sentence contains span markers")
)

// IsRejected reports whether err is a tagging contract failure rather than
// a failure to reach the oracle.
func IsRejected(err error) bool {
	return errors.Is(err, ErrOverlap) || errors.Is(err, ErrAltered) || errors.Is(err, ErrMarkedInput)
}

// Chunker tags a sentence.
type Chunker interface {
	Tag(ctx context.Context, sentence string) (string, error)
}

// Func adapts a plain function to Chunker.
type Func func(ctx context.Context, sentence string) (string, error)

// Tag calls f.
func (f Func) Tag(ctx context.Context, sentence string) (string, error) {
	return f(ctx, sentence)
}

// Validate checks that tagged is original with zero or more non-nested
// target spans added.
func Validate(original, tagged string) error {
	segs, err := brackets.Parse(tagged)
	if err != nil {
		return eris.Wrap(ErrOverlap, err.Error())
	}
	for _, s := range segs {
		if s.Kind == brackets.Protected {
			return eris.Wrapf(ErrOverlap, "unexpected protected span %q", s.Text)
		}
	}
	for i := range segs {
		segs[i].Kind = brackets.Plain
	}
	if brackets.Render(segs) != original {
		return ErrAltered
	}
	return nil
}

const tagPrompt = "Wrap every factual span of the sentence between triple backticks in square brackets [ ]. " +
	"A factual span is a noun phrase, number, date, quantity, adverb or descriptive phrase that carries " +
	"checkable information, such as who or what is involved, where, when, how much and with what consequence. " +
	"Do not bracket the grammatical subject of the sentence. Spans must not nest or overlap. " +
	"Copy every other character of the sentence exactly, including punctuation and spacing; do not rephrase, " +
	"correct or complete it. Answer with the tagged sentence between <output></output> tags and nothing else.\n\n" +
	"Example:\n```\nThe Eiffel Tower was completed in 1889 for the World's Fair in Paris.\n```\n" +
	"<output>The Eiffel Tower was completed [in 1889] for [the World's Fair] in [Paris].</output>\n\n" +
	"Now it's your turn.\n\n```\n%s\n```\n"

var outputRe = regexp.MustCompile(`(?s)<output>(.*?)</output>`)

// OracleChunker asks a language model to tag the sentence and enforces the
// tagging contract on its answer.
type OracleChunker struct {
	oracle      oracle.Oracle
	maxAttempts int
}

// NewOracleChunker creates an OracleChunker that asks up to maxAttempts
// times for a tagging that passes Validate.
func NewOracleChunker(o oracle.Oracle, maxAttempts int) (*OracleChunker, error) {
	if maxAttempts < 1 {
		return nil, eris.New("chunker: max attempts must be at least 1")
	}
	return &OracleChunker{oracle: o, maxAttempts: maxAttempts}, nil
}

// Tag implements Chunker. Oracle errors are returned immediately; contract
// violations are retried and the last one is returned once attempts run out.
// A sentence carrying markers fails with ErrMarkedInput without a query.
func (c *OracleChunker) Tag(ctx context.Context, sentence string) (string, error) {
	sentence = strings.TrimSpace(sentence)
	if brackets.HasMarkers(sentence) {
		return "", eris.Wrapf(ErrMarkedInput, "%q", sentence)
	}
	prompt := strings.Replace(tagPrompt, "%s", sentence, 1)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.oracle.Query(ctx, []oracle.Message{oracle.UserMessage(prompt)})
		if err != nil {
			return "", eris.Wrap(err, "chunker: query oracle")
		}

		tagged := resp
		if m := outputRe.FindStringSubmatch(resp); m != nil {
			tagged = m[1]
		}
		tagged = strings.TrimSpace(tagged)

		if err := Validate(sentence, tagged); err != nil {
			lastErr = err
			zap.L().Warn("chunker: rejected tagging",
				zap.Int("attempt", attempt),
				zap.Bool("altered", errors.Is(err, ErrAltered)),
				zap.Error(err),
			)
			continue
		}
		return tagged, nil
	}
	return "", eris.Wrapf(lastErr, "chunker: no valid tagging after %d attempts", c.maxAttempts)
}
