package roster

import (
	"context"
	"errors"
	"fmt"

	"github.com/trezcool/peerfeedback/core"
)

var (
	// errors
	ErrNotFound      = errors.New("class list not found")
	ErrDuplicateID   = errors.New("duplicate student id")
	ErrDuplicateCode = errors.New("duplicate student code")
)

type (
	// Entry is one student of the class list.
	Entry struct {
		StudentID string
		Email     string
		ShortCode string
	}

	// Roster is the class list of one course and term, indexed by student id and short code.
	Roster struct {
		entries []Entry
		byID    map[string]int
		byCode  map[string]int
	}

	Repository interface {
		// Load returns the class list of course for term.
		Load(ctx context.Context, term, course string) (*Roster, error)
	}
)

// New builds a Roster. Ids and short codes must be unique.
func New(entries []Entry) (*Roster, error) {
	r := &Roster{
		entries: make([]Entry, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
		byCode:  make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		e = Entry{
			StudentID: core.CleanString(e.StudentID),
			Email:     core.CleanString(e.Email),
			ShortCode: core.CleanString(e.ShortCode),
		}
		if _, ok := r.byID[e.StudentID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, e.StudentID)
		}
		if _, ok := r.byCode[e.ShortCode]; ok {
			return nil, fmt.Errorf("%w: %s (student %s)", ErrDuplicateCode, e.ShortCode, e.StudentID)
		}
		idx := len(r.entries)
		r.entries = append(r.entries, e)
		r.byID[e.StudentID] = idx
		r.byCode[e.ShortCode] = idx
	}
	return r, nil
}

func (r *Roster) Len() int { return len(r.entries) }

// IDs returns the student ids in class list order.
func (r *Roster) IDs() []string {
	ids := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		ids = append(ids, e.StudentID)
	}
	return ids
}

// Emails returns the student emails in class list order.
func (r *Roster) Emails() []string {
	emails := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		emails = append(emails, e.Email)
	}
	return emails
}

// Codes returns every short code of the class list.
func (r *Roster) Codes() []string {
	codes := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		codes = append(codes, e.ShortCode)
	}
	return codes
}

// ByCode resolves a short code to its entry.
func (r *Roster) ByCode(code string) (Entry, bool) {
	idx, ok := r.byCode[code]
	if !ok {
		return Entry{}, false
	}
	return r.entries[idx], true
}

// HasID reports whether id is a known student id.
func (r *Roster) HasID(id string) bool {
	_, ok := r.byID[id]
	return ok
}
