package inmemroster

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/peerfeedback/core/roster"
)

type repository struct {
	mutex sync.RWMutex
	table map[string][]roster.Entry // {term-course: entries}
}

var _ roster.Repository = (*repository)(nil)

// NewRepository returns an empty in-memory class list store.
func NewRepository() *repository {
	return &repository{table: make(map[string][]roster.Entry)}
}

func key(term, course string) string { return term + "-" + course }

// Put stores the class list of course for term, replacing any previous one.
func (repo *repository) Put(term, course string, entries ...roster.Entry) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	cp := make([]roster.Entry, len(entries))
	copy(cp, entries)
	repo.table[key(term, course)] = cp
}

func (repo *repository) Load(_ context.Context, term, course string) (*roster.Roster, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	entries, ok := repo.table[key(term, course)]
	if !ok {
		return nil, errors.Wrapf(roster.ErrNotFound, "%s", key(term, course))
	}
	return roster.New(entries)
}
