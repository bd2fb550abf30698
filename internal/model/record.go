package model

import (
	"slices"
	"strconv"
)

// Field names a record attribute that steps read or populate.
type Field string

const (
	FieldQuestion          Field = "question"
	FieldGroundTruth       Field = "ground_truth"
	FieldAnswers           Field = "answers"
	FieldWithBrackets      Field = "with_brackets"
	FieldThinking          Field = "thinking"
	FieldRawFactualData    Field = "raw_factual_data"
	FieldBlacklisted       Field = "blacklisted"
	FieldRankedFactualData Field = "ranked_factual_data"
	FieldFactualData       Field = "factual_data"
)

// BaseLevel is the faithful paraphrase every corruption starts from.
const BaseLevel = "A0"

// LevelName returns the name of corruption level i ("A0", "A1", ...).
func LevelName(i int) string {
	return "A" + strconv.Itoa(i)
}

// Levels maps a level name to the text produced at that level.
type Levels map[string]string

// Has reports whether level is populated.
func (l Levels) Has(level string) bool {
	_, ok := l[level]
	return ok
}

// Record is one question flowing through the benchmark pipeline. Steps
// populate fields incrementally; a field counts as present once a step (or
// the reader) has set it, even when the value set is null.
type Record struct {
	Question          string   `json:"question"`
	GroundTruth       string   `json:"ground_truth"`
	RawFactualData    []string `json:"raw_factual_data"`
	WithBrackets      Levels   `json:"with_brackets"`
	Thinking          Levels   `json:"thinking"`
	Blacklisted       []string `json:"blacklisted"`
	FactualData       []string `json:"factual_data"`
	RankedFactualData []string `json:"ranked_factual_data"`
	Answers           Levels   `json:"answers"`

	present map[Field]struct{}
}

// NewRecord creates a record holding a question and its reference answer.
func NewRecord(question, groundTruth string) *Record {
	r := &Record{}
	r.SetQuestion(question)
	r.SetGroundTruth(groundTruth)
	return r
}

func (r *Record) mark(f Field) {
	if r.present == nil {
		r.present = make(map[Field]struct{})
	}
	r.present[f] = struct{}{}
}

// Has reports whether field f has been set.
func (r *Record) Has(f Field) bool {
	_, ok := r.present[f]
	return ok
}

// Fields returns the set fields in lexical order.
func (r *Record) Fields() []Field {
	out := make([]Field, 0, len(r.present))
	for f := range r.present {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

func (r *Record) SetQuestion(q string) {
	r.Question = q
	r.mark(FieldQuestion)
}

func (r *Record) SetGroundTruth(gt string) {
	r.GroundTruth = gt
	r.mark(FieldGroundTruth)
}

// SetAnswers sets the answer texts by level. A nil map records that no
// answer could be produced.
func (r *Record) SetAnswers(l Levels) {
	r.Answers = l
	r.mark(FieldAnswers)
}

func (r *Record) SetWithBrackets(l Levels) {
	r.WithBrackets = l
	r.mark(FieldWithBrackets)
}

func (r *Record) SetThinking(l Levels) {
	r.Thinking = l
	r.mark(FieldThinking)
}

func (r *Record) SetRawFactualData(spans []string) {
	r.RawFactualData = spans
	r.mark(FieldRawFactualData)
}

func (r *Record) SetBlacklisted(spans []string) {
	r.Blacklisted = spans
	r.mark(FieldBlacklisted)
}

func (r *Record) SetRankedFactualData(spans []string) {
	r.RankedFactualData = spans
	r.mark(FieldRankedFactualData)
}

func (r *Record) SetFactualData(spans []string) {
	r.FactualData = spans
	r.mark(FieldFactualData)
}

// IsValid reports whether at least one corrupted level was produced on top
// of the paraphrase.
func (r *Record) IsValid() bool {
	return len(r.Answers) > 1
}
