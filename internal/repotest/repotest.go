// Package repotest holds the behavioral checks every types.Repository
// implementation must pass. Backend packages call Run from their own tests.
package repotest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besttest/besttest/pkg/types"
)

// Factory opens a fresh, empty repository for one subtest.
type Factory func(t *testing.T) types.Repository

// SampleState returns a small but complete project state.
func SampleState() types.State {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return types.State{
		Modules: []types.Module{{
			ID:       "m1",
			Name:     "Authentication",
			Expanded: true,
			Scenarios: []types.Scenario{{
				ID:       "s1",
				Name:     "Login",
				Expanded: true,
				TestCases: []types.TestCase{
					{Key: "k1", ID: "TC_001", Name: "valid login", Priority: types.PriorityHigh, Type: types.TypeUI, Status: types.CaseStatusNotStarted},
					{Key: "k2", ID: "TC_002", Name: "bad password", Priority: types.PriorityLow, Type: types.TypeAPI, Status: types.CaseStatusNotStarted},
				},
			}},
		}},
		Plans: []types.TestPlan{{
			ID:        "TP-1",
			Title:     "Smoke",
			TestCases: []types.CaseRef{{Key: "k1", CaseID: "TC_001", Name: "valid login", Module: "Authentication"}},
			CreatedAt: at,
		}},
		Results: []types.TestResult{{
			ID: "TR-1", PlanID: "TP-1", PlanName: "Smoke", ExecutedAt: at,
			Total: 1, Passed: 1,
			Details: []types.ResultDetail{{Key: "k1", ID: "TC_001", Result: types.VerdictPassed}},
		}},
	}
}

// Run exercises the Repository contract against repositories from newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Helper()

	t.Run("empty store", func(t *testing.T) {
		repo := newRepo(t)
		projects, err := repo.LoadProjects()
		require.NoError(t, err)
		assert.Empty(t, projects)

		st, err := repo.Load("never-saved")
		require.NoError(t, err)
		assert.Empty(t, st.Modules)
		assert.Empty(t, st.Plans)
		assert.Empty(t, st.Results)
	})

	t.Run("state round trip", func(t *testing.T) {
		repo := newRepo(t)
		want := SampleState()
		require.NoError(t, repo.Save("p1", want))

		got, err := repo.Load("p1")
		require.NoError(t, err)
		require.Len(t, got.Modules, 1)
		assert.Equal(t, want.Modules, got.Modules)
		require.Len(t, got.Plans, 1)
		assert.Equal(t, want.Plans[0].Title, got.Plans[0].Title)
		assert.True(t, want.Plans[0].CreatedAt.Equal(got.Plans[0].CreatedAt))
		require.Len(t, got.Results, 1)
		assert.Equal(t, want.Results[0].Details, got.Results[0].Details)
	})

	t.Run("save replaces previous state", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save("p1", SampleState()))
		require.NoError(t, repo.Save("p1", types.State{}))

		got, err := repo.Load("p1")
		require.NoError(t, err)
		assert.Empty(t, got.Modules)
		assert.Empty(t, got.Results)
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save("p1", SampleState()))

		other, err := repo.Load("p2")
		require.NoError(t, err)
		assert.Empty(t, other.Modules)
	})

	t.Run("projects round trip", func(t *testing.T) {
		repo := newRepo(t)
		created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		in := []types.Project{
			{ID: "p1", Name: "Web", Status: types.ProjectStatusActive, CreatedAt: created},
			{ID: "p2", Name: "Mobile", Status: types.ProjectStatusArchived, CreatedAt: created},
		}
		require.NoError(t, repo.SaveProjects(in))

		out, err := repo.LoadProjects()
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, "Web", out[0].Name)
		assert.Equal(t, "Mobile", out[1].Name)
		assert.True(t, created.Equal(out[1].CreatedAt))
	})

	t.Run("purge removes namespace only", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.SaveProjects([]types.Project{{ID: "p1", Name: "Web"}}))
		require.NoError(t, repo.Save("p1", SampleState()))
		require.NoError(t, repo.Save("p2", SampleState()))

		require.NoError(t, repo.Purge("p1"))
		require.NoError(t, repo.Purge("p1"), "purge must be idempotent")

		st, err := repo.Load("p1")
		require.NoError(t, err)
		assert.Empty(t, st.Modules)

		kept, err := repo.Load("p2")
		require.NoError(t, err)
		assert.Len(t, kept.Modules, 1)

		projects, err := repo.LoadProjects()
		require.NoError(t, err)
		assert.Len(t, projects, 1)
	})

	t.Run("closed repository", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Close())
		require.NoError(t, repo.Close(), "close must be idempotent")

		_, err := repo.Load("p1")
		assert.True(t, errors.Is(err, types.ErrRepositoryClosed))
		assert.ErrorIs(t, repo.Save("p1", types.State{}), types.ErrRepositoryClosed)
		assert.ErrorIs(t, repo.SaveProjects(nil), types.ErrRepositoryClosed)
		_, err = repo.LoadProjects()
		assert.ErrorIs(t, err, types.ErrRepositoryClosed)
		assert.ErrorIs(t, repo.Purge("p1"), types.ErrRepositoryClosed)
	})
}
