package feedback

import (
	"context"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/peerfeedback/core"
	"github.com/trezcool/peerfeedback/core/roster"
)

// minHintRatio is the similarity a known code needs to be suggested.
const minHintRatio = .6

// Result is the outcome of aggregating a run's submissions.
type Result struct {
	Bundles       *Bundles
	Participation Participation
	Submissions   int
	ids           []string
}

// Present returns the ids marked 1, in class list order.
func (res *Result) Present() []string { return res.filter(1) }

// Absent returns the ids marked 0, in class list order.
func (res *Result) Absent() []string { return res.filter(0) }

// IDs returns every student id, in class list order.
func (res *Result) IDs() []string {
	out := make([]string, len(res.ids))
	copy(out, res.ids)
	return out
}

func (res *Result) filter(value int) []string {
	out := make([]string, 0, len(res.ids))
	for _, id := range res.ids {
		if res.Participation[id] == value {
			out = append(out, id)
		}
	}
	return out
}

// Aggregate joins submissions to the class list by student code.
// Feedback goes to the student owning the code, and that student's participation is set to 1.
// The first malformed submission aborts with a *RowError; nothing is returned in that case.
func Aggregate(ctx context.Context, r *roster.Roster, subs []Submission, instructors []string) (*Result, error) {
	instructorSet := make(map[string]bool, len(instructors))
	for _, email := range instructors {
		instructorSet[core.CleanString(email, true /* lower */)] = true
	}

	bundles := NewBundles(r.Emails())
	participation := make(Participation, r.Len())

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		isInstructor := instructorSet[strings.ToLower(sub.EvaluatorEmail)]
		if sub.StudentID != "" && r.HasID(sub.StudentID) {
			participation[sub.StudentID] = 1
		}

		for _, tv := range sub.Targets {
			code := core.CleanString(tv.Code)
			if !core.IsShortCode(code) {
				return nil, &RowError{Kind: ErrCodeFormat, Row: sub.Row, Evaluator: sub.EvaluatorEmail, Code: code}
			}
			entry, ok := r.ByCode(code)
			if !ok {
				return nil, &RowError{
					Kind:      ErrCodeNotFound,
					Row:       sub.Row,
					Evaluator: sub.EvaluatorEmail,
					Code:      code,
					Hint:      closestCode(code, r.Codes()),
				}
			}
			if !bundles.add(entry.Email, Entry{Fields: tv.Fields, IsInstructor: isInstructor}) {
				return nil, &RowError{
					Kind:      ErrEmailNotMatched,
					Row:       sub.Row,
					Evaluator: sub.EvaluatorEmail,
					Code:      code,
					Recipient: entry.Email,
				}
			}
			if r.HasID(entry.StudentID) {
				participation[entry.StudentID] = 1
			}
		}
	}

	// everyone not referenced did not take part
	ids := r.IDs()
	for _, id := range ids {
		if _, ok := participation[id]; !ok {
			participation[id] = 0
		}
	}

	return &Result{
		Bundles:       bundles,
		Participation: participation,
		Submissions:   len(subs),
		ids:           ids,
	}, nil
}

// closestCode returns the known code most similar to code, or "".
func closestCode(code string, known []string) string {
	var (
		best      string
		bestRatio float64
	)
	a := strings.Split(code, "")
	for _, k := range known {
		ratio := difflib.NewMatcher(a, strings.Split(k, "")).Ratio()
		if ratio > bestRatio {
			best, bestRatio = k, ratio
		}
	}
	if bestRatio < minHintRatio {
		return ""
	}
	return best
}
