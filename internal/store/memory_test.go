package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/handiism/epic-downloader/internal/model"
)

func TestMemoryStore_Empty(t *testing.T) {
	s := NewMemoryStore(3)

	if _, err := s.Latest(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest() error = %v, want ErrNotFound", err)
	}
	if got := s.List(0); len(got) != 0 {
		t.Errorf("List() = %v, want empty", got)
	}
}

func TestMemoryStore_Retention(t *testing.T) {
	s := NewMemoryStore(3)
	for i := 0; i < 5; i++ {
		s.Save(RunRecord{RunID: fmt.Sprintf("run-%d", i)})
	}

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}

	latest, err := s.Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.RunID != "run-4" {
		t.Errorf("Latest() = %s, want run-4", latest.RunID)
	}

	if _, err := s.Get("run-0"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(run-0) should be evicted, got %v", err)
	}

	list := s.List(2)
	if len(list) != 2 || list[0].RunID != "run-4" || list[1].RunID != "run-3" {
		t.Errorf("List(2) = %+v, want run-4, run-3", list)
	}
}

func TestRunRecord_Succeeded(t *testing.T) {
	tests := []struct {
		name   string
		record RunRecord
		want   bool
	}{
		{"fatal", RunRecord{Error: "no date"}, false},
		{"clean", RunRecord{Report: &model.RunReport{}}, true},
		{"partial", RunRecord{Report: &model.RunReport{Failures: []model.Failure{{Identifier: "a"}}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.Succeeded(); got != tt.want {
				t.Errorf("Succeeded() = %v, want %v", got, tt.want)
			}
		})
	}
}
