package feedback

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/peerfeedback/core/roster"
)

func newRoster(t *testing.T) *roster.Roster {
	t.Helper()
	r, err := roster.New([]roster.Entry{
		{StudentID: "111", Email: "a@x.edu", ShortCode: "001"},
		{StudentID: "222", Email: "b@x.edu", ShortCode: "002"},
	})
	require.NoError(t, err)
	return r
}

func submission(rowNum int, evaluator, code string, fields ...string) Submission {
	tv := TargetValue{Code: code}
	copy(tv.Fields[:], fields)
	return Submission{Row: rowNum, EvaluatorEmail: evaluator, Targets: []TargetValue{tv}}
}

func TestAggregate(t *testing.T) {
	r := newRoster(t)
	subs := []Submission{submission(2, "c@x.edu", "001", "5", "4", "good")}

	res, err := Aggregate(context.Background(), r, subs, nil)
	require.NoError(t, err)

	if diff := cmp.Diff(Participation{"111": 1, "222": 0}, res.Participation); diff != "" {
		t.Errorf("Participation mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Entry{{Fields: [FieldCount]string{"5", "4", "good"}}}, res.Bundles.Get("a@x.edu")); diff != "" {
		t.Errorf("Bundles.Get(a@x.edu) mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, res.Bundles.Get("b@x.edu"))
	assert.Equal(t, []string{"a@x.edu"}, res.Bundles.NonEmpty())
	assert.Equal(t, []string{"111"}, res.Present())
	assert.Equal(t, []string{"222"}, res.Absent())
	assert.Equal(t, []string{"111", "222"}, res.IDs())
	assert.Equal(t, 1, res.Submissions)
	assert.Equal(t, 1, res.Bundles.Total())
}

func TestAggregate_orderAndInstructors(t *testing.T) {
	r := newRoster(t)
	subs := []Submission{
		submission(2, "b@x.edu", "001", "3", "3", "first"),
		submission(3, "Prof@X.edu", " 001 ", "5", "5", "second"),
		submission(4, "b@x.edu", "001", "1", "2", "third"),
	}

	res, err := Aggregate(context.Background(), r, subs, []string{" prof@x.edu "})
	require.NoError(t, err)

	want := []Entry{
		{Fields: [FieldCount]string{"3", "3", "first"}},
		{Fields: [FieldCount]string{"5", "5", "second"}, IsInstructor: true},
		{Fields: [FieldCount]string{"1", "2", "third"}},
	}
	if diff := cmp.Diff(want, res.Bundles.Get("a@x.edu")); diff != "" {
		t.Errorf("Bundles.Get(a@x.edu) mismatch (-want +got):\n%s", diff)
	}
	// submitting alone does not count, being assessed does
	assert.Equal(t, Participation{"111": 1, "222": 0}, res.Participation)
}

func TestAggregate_studentIDColumn(t *testing.T) {
	r := newRoster(t)
	sub := submission(2, "b@x.edu", "001", "4", "4", "ok")
	sub.StudentID = "222"
	unknown := submission(3, "z@x.edu", "001", "4", "4", "ok")
	unknown.StudentID = "999"

	res, err := Aggregate(context.Background(), r, []Submission{sub, unknown}, nil)
	require.NoError(t, err)
	assert.Equal(t, Participation{"111": 1, "222": 1}, res.Participation)
}

func TestAggregate_errors(t *testing.T) {
	r := newRoster(t)
	tests := []struct {
		name     string
		subs     []Submission
		wantKind error
		wantRow  int
		wantHint string
	}{
		{
			name:     "code not numeric",
			subs:     []Submission{submission(2, "c@x.edu", "001"), submission(3, "d@x.edu", "abc")},
			wantKind: ErrCodeFormat,
			wantRow:  3,
		},
		{
			name:     "blank code",
			subs:     []Submission{submission(5, "c@x.edu", "  ")},
			wantKind: ErrCodeFormat,
			wantRow:  5,
		},
		{
			name:     "code not found with hint",
			subs:     []Submission{submission(2, "c@x.edu", "003")},
			wantKind: ErrCodeNotFound,
			wantRow:  2,
			wantHint: "001",
		},
		{
			name:     "code not found without hint",
			subs:     []Submission{submission(7, "c@x.edu", "98765")},
			wantKind: ErrCodeNotFound,
			wantRow:  7,
		},
		{
			name:     "code beyond int64",
			subs:     []Submission{submission(4, "c@x.edu", "99999999999999999999")},
			wantKind: ErrCodeNotFound,
			wantRow:  4,
		},
		{
			name: "first error wins",
			subs: []Submission{
				submission(2, "c@x.edu", "999"),
				submission(3, "c@x.edu", "x"),
			},
			wantKind: ErrCodeNotFound,
			wantRow:  2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Aggregate(context.Background(), r, tt.subs, nil)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.wantKind), "got %v", err)

			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
			assert.Equal(t, tt.wantRow, rowErr.Row)
			assert.Equal(t, tt.wantHint, rowErr.Hint)
			assert.Contains(t, err.Error(), rowErr.Evaluator)
		})
	}
}

func TestAggregate_canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Aggregate(ctx, newRoster(t), []Submission{submission(2, "c@x.edu", "001")}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBundles(t *testing.T) {
	b := NewBundles([]string{"b@x.edu", "a@x.edu", "b@x.edu"})
	assert.True(t, b.Has("b@x.edu"))
	assert.Empty(t, b.NonEmpty())
	assert.True(t, b.add("a@x.edu", Entry{}))
	assert.False(t, b.add("z@x.edu", Entry{}))
	assert.Equal(t, []string{"a@x.edu"}, b.NonEmpty())
	assert.Equal(t, 1, b.Total())
}
