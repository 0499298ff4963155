package app

import (
	"fmt"

	"github.com/dkeye/stagebridge/internal/domain"
)

// Candidate is a video stream available for assignment.
type Candidate struct {
	Participant domain.ParticipantID
	Stream      domain.Stream
}

// AssignmentPolicy orders available streams before they are zipped with idle views.
type AssignmentPolicy interface {
	Order(target domain.ParticipantID, available []Candidate) []Candidate
}

const (
	PolicySortToFront = "sort_to_front"
	PolicyFilterFirst = "filter_first"
)

func PolicyByName(name string) (AssignmentPolicy, error) {
	switch name {
	case "", PolicySortToFront:
		return SortToFront{}, nil
	case PolicyFilterFirst:
		return FilterFirst{}, nil
	default:
		return nil, fmt.Errorf("unknown assignment policy %q", name)
	}
}

// SortToFront moves the target participant's streams to the front and keeps
// the relative order of everything else.
type SortToFront struct{}

func (SortToFront) Order(target domain.ParticipantID, available []Candidate) []Candidate {
	if target == "" {
		return available
	}
	out := make([]Candidate, 0, len(available))
	for _, c := range available {
		if c.Participant == target {
			out = append(out, c)
		}
	}
	for _, c := range available {
		if c.Participant != target {
			out = append(out, c)
		}
	}
	return out
}

// FilterFirst offers only the target participant's streams while it has any
// available, and falls back to every stream otherwise.
type FilterFirst struct{}

func (FilterFirst) Order(target domain.ParticipantID, available []Candidate) []Candidate {
	if target == "" {
		return available
	}
	out := make([]Candidate, 0, len(available))
	for _, c := range available {
		if c.Participant == target {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return available
	}
	return out
}
