package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besttest/besttest/internal/memory"
	"github.com/besttest/besttest/pkg/types"
)

func TestCatalogLifecycle(t *testing.T) {
	repo := memory.New()
	c := NewCatalog(repo, nil)

	_, err := c.CreateProject(" ")
	assert.ErrorIs(t, err, types.ErrInvalidName)

	web, err := c.CreateProject("Web Shop")
	require.NoError(t, err)
	assert.Equal(t, types.ProjectStatusActive, web.Status)
	mobile, err := c.CreateProject("Mobile")
	require.NoError(t, err)

	changed, err := c.RenameProject(web.ID, "Web")
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = c.RenameProject("missing", "x")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = c.SetProjectStatus(mobile.ID, types.ProjectStatusArchived)
	require.NoError(t, err)
	assert.True(t, changed)
	_, err = c.SetProjectStatus(mobile.ID, "Paused")
	assert.ErrorIs(t, err, types.ErrInvalidStatus)

	projects, err := c.Projects()
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Web", projects[0].Name)
	assert.Equal(t, types.ProjectStatusArchived, projects[1].Status)

	_, err = c.Project("missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCatalogRecomputesDerivedFields(t *testing.T) {
	repo := memory.New()
	c := NewCatalog(repo, nil)
	p, err := c.CreateProject("Web")
	require.NoError(t, err)

	got, err := c.Project(p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.CaseCount)
	assert.Nil(t, got.LastTested)

	s, err := c.OpenStore(p.ID)
	require.NoError(t, err)
	m, err := s.CreateModule("Cart")
	require.NoError(t, err)
	sc, _, err := s.CreateScenario(m.ID, "Add")
	require.NoError(t, err)
	tc, _, err := s.CreateTestCase(m.ID, sc.ID, types.TestCase{Name: "add one"})
	require.NoError(t, err)
	_, _, err = s.CreateTestCase(m.ID, sc.ID, types.TestCase{Name: "add two"})
	require.NoError(t, err)
	r, err := s.RecordTestResult(types.TestPlan{}, []types.ResultDetail{{Key: tc.Key, Result: types.VerdictPassed}})
	require.NoError(t, err)

	got, err = c.Project(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CaseCount)
	require.NotNil(t, got.LastTested)
	assert.True(t, r.ExecutedAt.Equal(*got.LastTested))

	_, err = s.DeleteModule(m.ID)
	require.NoError(t, err)
	projects, err := c.Projects()
	require.NoError(t, err)
	assert.Zero(t, projects[0].CaseCount)
}

func TestDeleteProjectPurgesNamespace(t *testing.T) {
	repo := memory.New()
	c := NewCatalog(repo, nil)
	p, err := c.CreateProject("Web")
	require.NoError(t, err)
	s, err := c.OpenStore(p.ID)
	require.NoError(t, err)
	_, err = s.CreateModule("Cart")
	require.NoError(t, err)

	changed, err := c.DeleteProject(p.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = c.DeleteProject(p.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	st, err := repo.Load(p.ID)
	require.NoError(t, err)
	assert.Empty(t, st.Modules)

	_, err = c.OpenStore(p.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDetachedStoreDoesNotRecreateDeletedProject(t *testing.T) {
	repo := memory.New()
	c := NewCatalog(repo, nil)
	p, err := c.CreateProject("Web")
	require.NoError(t, err)
	s, err := c.OpenStore(p.ID)
	require.NoError(t, err)

	s.Detach()
	changed, err := c.DeleteProject(p.ID)
	require.NoError(t, err)
	require.True(t, changed)

	_, err = s.CreateModule("Cart")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, s.Flush(), types.ErrNotFound)

	st, err := repo.Load(p.ID)
	require.NoError(t, err)
	assert.Empty(t, st.Modules, "no write reached the purged namespace")
}

func TestCatalogReset(t *testing.T) {
	repo := memory.New()
	c := NewCatalog(repo, nil)
	for _, name := range []string{"a", "b"} {
		p, err := c.CreateProject(name)
		require.NoError(t, err)
		require.NoError(t, repo.Save(p.ID, types.State{Modules: []types.Module{{ID: "m", Name: "m"}}}))
	}

	n, err := c.Reset()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	projects, err := c.Projects()
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestCatalogPersistError(t *testing.T) {
	repo := &flakyRepo{Backend: memory.New()}
	c := NewCatalog(repo, nil)
	repo.setFailing(true)

	_, err := c.CreateProject("Web")
	assert.ErrorIs(t, err, types.ErrPersist)
}
