package app

import (
	"testing"

	"github.com/dkeye/stagebridge/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestPolicies(t *testing.T) {
	available := []Candidate{
		{Participant: "P1", Stream: video("cam-1")},
		{Participant: "P2", Stream: video("cam-2")},
		{Participant: "P1", Stream: video("cam-3")},
	}

	require.Equal(t, available, SortToFront{}.Order("", available))
	require.Equal(t, available, FilterFirst{}.Order("", available))

	require.Equal(t, []domain.DeviceURN{"cam-2", "cam-1", "cam-3"}, urns(SortToFront{}.Order("P2", available)))
	require.Equal(t, []domain.DeviceURN{"cam-2"}, urns(FilterFirst{}.Order("P2", available)))
	require.Equal(t, []domain.DeviceURN{"cam-1", "cam-2", "cam-3"}, urns(FilterFirst{}.Order("P9", available)))
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("")
	require.NoError(t, err)
	require.IsType(t, SortToFront{}, p)

	p, err = PolicyByName(PolicyFilterFirst)
	require.NoError(t, err)
	require.IsType(t, FilterFirst{}, p)

	_, err = PolicyByName("priority")
	require.Error(t, err)
}

func urns(cs []Candidate) []domain.DeviceURN {
	out := make([]domain.DeviceURN, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Stream.DeviceURN)
	}
	return out
}
