package feedback

import "context"

// FieldCount is the number of feedback cells recorded per assessed student.
const FieldCount = 3

type (
	// Sheet is the raw content of a workbook's active sheet, header row included.
	Sheet struct {
		Name string
		Rows [][]string
	}

	WorkbookReader interface {
		// ReadSheet returns the active sheet of the workbook at path.
		ReadSheet(ctx context.Context, path string) (Sheet, error)
	}

	// TargetValue is what a submission says about one assessed student.
	TargetValue struct {
		Code   string
		Fields [FieldCount]string
	}

	// Submission is one form submission (one data row of the sheet).
	Submission struct {
		Row            int // 1-based row number in the sheet
		EvaluatorEmail string
		StudentID      string // empty when the mapping has no student id column
		Targets        []TargetValue
	}

	// Entry is one piece of feedback received by a student.
	Entry struct {
		Fields       [FieldCount]string
		IsInstructor bool
	}

	// Participation maps student ids to 1 (took part) or 0.
	Participation map[string]int
)

// Bundles holds the feedback received per recipient email, in the order it was read.
type Bundles struct {
	order   []string
	entries map[string][]Entry
}

// NewBundles returns empty bundles for recipients, in the given order.
func NewBundles(recipients []string) *Bundles {
	b := &Bundles{
		order:   make([]string, 0, len(recipients)),
		entries: make(map[string][]Entry, len(recipients)),
	}
	for _, email := range recipients {
		if _, ok := b.entries[email]; ok {
			continue
		}
		b.order = append(b.order, email)
		b.entries[email] = []Entry{}
	}
	return b
}

// Has reports whether email is a known recipient.
func (b *Bundles) Has(email string) bool {
	_, ok := b.entries[email]
	return ok
}

func (b *Bundles) add(email string, e Entry) bool {
	if !b.Has(email) {
		return false
	}
	b.entries[email] = append(b.entries[email], e)
	return true
}

// Get returns the feedback received by email.
func (b *Bundles) Get(email string) []Entry {
	return b.entries[email]
}

// NonEmpty returns the recipients who received at least one entry.
func (b *Bundles) NonEmpty() []string {
	out := make([]string, 0, len(b.order))
	for _, email := range b.order {
		if len(b.entries[email]) > 0 {
			out = append(out, email)
		}
	}
	return out
}

// Total is the number of entries over all recipients.
func (b *Bundles) Total() int {
	var n int
	for _, lst := range b.entries {
		n += len(lst)
	}
	return n
}
