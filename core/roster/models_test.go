package roster

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		wantErr error
	}{
		{name: "empty"},
		{
			name: "valid",
			entries: []Entry{
				{StudentID: "111", Email: "a@x.edu", ShortCode: "101"},
				{StudentID: "222", Email: "b@x.edu", ShortCode: "202"},
			},
		},
		{
			name: "duplicate id",
			entries: []Entry{
				{StudentID: "111", Email: "a@x.edu", ShortCode: "101"},
				{StudentID: " 111 ", Email: "b@x.edu", ShortCode: "202"},
			},
			wantErr: ErrDuplicateID,
		},
		{
			name: "duplicate code",
			entries: []Entry{
				{StudentID: "111", Email: "a@x.edu", ShortCode: "101"},
				{StudentID: "222", Email: "b@x.edu", ShortCode: "101"},
			},
			wantErr: ErrDuplicateCode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.entries)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && r.Len() != len(tt.entries) {
				t.Errorf("Len() = %d, want %d", r.Len(), len(tt.entries))
			}
		})
	}
}

func TestRoster_lookups(t *testing.T) {
	r, err := New([]Entry{
		{StudentID: " 222", Email: "b@x.edu ", ShortCode: "202"},
		{StudentID: "111", Email: "a@x.edu", ShortCode: " 101 "},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if diff := cmp.Diff([]string{"222", "111"}, r.IDs()); diff != "" {
		t.Errorf("IDs() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b@x.edu", "a@x.edu"}, r.Emails()); diff != "" {
		t.Errorf("Emails() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"202", "101"}, r.Codes()); diff != "" {
		t.Errorf("Codes() mismatch (-want +got):\n%s", diff)
	}

	got, ok := r.ByCode("101")
	if !ok {
		t.Fatal("ByCode(101) not found")
	}
	if diff := cmp.Diff(Entry{StudentID: "111", Email: "a@x.edu", ShortCode: "101"}, got); diff != "" {
		t.Errorf("ByCode(101) mismatch (-want +got):\n%s", diff)
	}
	if _, ok := r.ByCode("999"); ok {
		t.Error("ByCode(999) found, want not found")
	}
	if !r.HasID("111") || r.HasID("333") {
		t.Error("HasID() mismatch")
	}
}
