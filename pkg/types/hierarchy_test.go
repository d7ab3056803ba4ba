package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr error
	}{
		{in: "", want: PriorityMedium},
		{in: "High", want: PriorityHigh},
		{in: "critical", want: PriorityHigh},
		{in: " low ", want: PriorityLow},
		{in: "MIDDLE", want: PriorityMedium},
		{in: "urgent", wantErr: ErrInvalidPriority},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCaseType(t *testing.T) {
	tests := []struct {
		in      string
		want    CaseType
		wantErr error
	}{
		{in: "", want: TypeUI},
		{in: "ui", want: TypeUI},
		{in: "E2E", want: TypeE2E},
		{in: "function", want: TypeFunction},
		{in: "Api", want: TypeAPI},
		{in: "load", wantErr: ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCaseType(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModuleScenarioLookup(t *testing.T) {
	m := Module{
		ID: "m1",
		Scenarios: []Scenario{
			{ID: "s1", TestCases: []TestCase{{Key: "k1"}, {Key: "k2"}}},
			{ID: "s2", TestCases: []TestCase{{Key: "k3"}}},
		},
	}
	assert.Equal(t, 3, m.CaseCount())

	sc, ok := m.Scenario("s1")
	require.True(t, ok)
	tc, ok := sc.TestCase("k2")
	require.True(t, ok)
	tc.Name = "edited"
	assert.Equal(t, "edited", m.Scenarios[0].TestCases[1].Name, "lookup returns a pointer into the slice")

	assert.True(t, sc.RemoveTestCase("k1"))
	assert.False(t, sc.RemoveTestCase("k1"))
	assert.Equal(t, 2, m.CaseCount())

	assert.True(t, m.RemoveScenario("s2"))
	assert.False(t, m.RemoveScenario("missing"))
	_, ok = m.Scenario("s2")
	assert.False(t, ok)
}
