package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besttest/besttest/pkg/types"
)

func TestBegin(t *testing.T) {
	st := newStore(t)
	m, err := st.CreateModule("Checkout")
	require.NoError(t, err)
	sc, _, err := st.CreateScenario(m.ID, "Cart")
	require.NoError(t, err)
	a, _, err := st.CreateTestCase(m.ID, sc.ID, types.TestCase{Name: "a"})
	require.NoError(t, err)
	b, _, err := st.CreateTestCase(m.ID, sc.ID, types.TestCase{Name: "b"})
	require.NoError(t, err)
	plan, err := st.CreateTestPlan("Smoke", []string{b.Key, a.Key})
	require.NoError(t, err)

	t.Run("plan cases in plan order", func(t *testing.T) {
		s, dangling, err := Begin(st, plan.ID)
		require.NoError(t, err)
		assert.Empty(t, dangling)
		assert.Equal(t, InProgress, s.State())
		assert.Equal(t, plan.ID, s.Plan().ID)
		cases := s.Cases()
		require.Len(t, cases, 2)
		assert.Equal(t, b.Key, cases[0].Key)
	})

	t.Run("manual run over every case", func(t *testing.T) {
		s, _, err := Begin(st, "")
		require.NoError(t, err)
		assert.Equal(t, types.ManualPlanID, s.Plan().ID)
		assert.Len(t, s.Cases(), 2)
	})

	t.Run("deleted cases are reported", func(t *testing.T) {
		_, err := st.DeleteTestCase(m.ID, sc.ID, a.Key)
		require.NoError(t, err)
		s, dangling, err := Begin(st, plan.ID)
		require.NoError(t, err)
		assert.Len(t, s.Cases(), 1)
		require.Len(t, dangling, 1)
		assert.Equal(t, a.Key, dangling[0].Key)
	})

	t.Run("unknown plan", func(t *testing.T) {
		_, _, err := Begin(st, "TP-missing")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}
