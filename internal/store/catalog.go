package store

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/besttest/besttest/pkg/types"
)

// Catalog manages the global project list. CaseCount and LastTested are
// recomputed from each project's state whenever projects are read, so they
// cannot drift from the hierarchy.
type Catalog struct {
	mu     sync.Mutex
	repo   types.Repository
	now    func() time.Time
	logger *slog.Logger
}

// NewCatalog returns a Catalog over repo.
func NewCatalog(repo types.Repository, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{repo: repo, now: time.Now, logger: logger}
}

// CreateProject appends an Active project with a fresh id.
func (c *Catalog) CreateProject(name string) (types.Project, error) {
	name, err := validName(name)
	if err != nil {
		return types.Project{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	projects, err := c.repo.LoadProjects()
	if err != nil {
		return types.Project{}, fmt.Errorf("load projects: %w", err)
	}
	p := types.Project{
		ID:        newID(),
		Name:      name,
		Status:    types.ProjectStatusActive,
		CreatedAt: c.now().UTC(),
	}
	projects = append(projects, p)
	if err := c.repo.SaveProjects(projects); err != nil {
		return p, &types.PersistError{Op: "create project", Err: err}
	}
	c.logger.Info("project created", "project", p.ID, "name", p.Name)
	return p, nil
}

// RenameProject changes a project's name. Missing ids are a no-op.
func (c *Catalog) RenameProject(id, name string) (bool, error) {
	name, err := validName(name)
	if err != nil {
		return false, err
	}
	return c.update(id, "rename project", func(p *types.Project) { p.Name = name })
}

// SetProjectStatus changes a project's status between Active and Archived.
func (c *Catalog) SetProjectStatus(id, status string) (bool, error) {
	if status != types.ProjectStatusActive && status != types.ProjectStatusArchived {
		return false, fmt.Errorf("%w: %q", types.ErrInvalidStatus, status)
	}
	return c.update(id, "set project status", func(p *types.Project) { p.Status = status })
}

// DeleteProject removes a project from the list and purges its namespace.
func (c *Catalog) DeleteProject(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	projects, err := c.repo.LoadProjects()
	if err != nil {
		return false, fmt.Errorf("load projects: %w", err)
	}
	idx := indexOfProject(projects, id)
	if idx < 0 {
		return false, nil
	}
	projects = append(projects[:idx], projects[idx+1:]...)
	if err := c.repo.SaveProjects(projects); err != nil {
		return false, &types.PersistError{Op: "delete project", Err: err}
	}
	if err := c.repo.Purge(id); err != nil {
		return true, &types.PersistError{Op: "purge project", Err: err}
	}
	c.logger.Info("project deleted", "project", id)
	return true, nil
}

// Projects lists every project with CaseCount and LastTested recomputed.
func (c *Catalog) Projects() ([]types.Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	projects, err := c.repo.LoadProjects()
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	for i := range projects {
		if err := c.fill(&projects[i]); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// Project returns one project, or types.ErrNotFound.
func (c *Catalog) Project(id string) (types.Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	projects, err := c.repo.LoadProjects()
	if err != nil {
		return types.Project{}, fmt.Errorf("load projects: %w", err)
	}
	idx := indexOfProject(projects, id)
	if idx < 0 {
		return types.Project{}, types.ErrNotFound
	}
	p := projects[idx]
	if err := c.fill(&p); err != nil {
		return types.Project{}, err
	}
	return p, nil
}

// Reset deletes every project and its data.
func (c *Catalog) Reset() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	projects, err := c.repo.LoadProjects()
	if err != nil {
		return 0, fmt.Errorf("load projects: %w", err)
	}
	for _, p := range projects {
		if err := c.repo.Purge(p.ID); err != nil {
			return 0, &types.PersistError{Op: "reset", Err: err}
		}
	}
	if err := c.repo.SaveProjects([]types.Project{}); err != nil {
		return 0, &types.PersistError{Op: "reset", Err: err}
	}
	c.logger.Warn("all project data cleared", "projects", len(projects))
	return len(projects), nil
}

// OpenStore opens the Store for an existing project.
func (c *Catalog) OpenStore(id string, opts ...Option) (*Store, error) {
	if _, err := c.Project(id); err != nil {
		return nil, err
	}
	return Open(c.repo, id, append([]Option{WithLogger(c.logger)}, opts...)...)
}

func (c *Catalog) update(id, op string, fn func(*types.Project)) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	projects, err := c.repo.LoadProjects()
	if err != nil {
		return false, fmt.Errorf("load projects: %w", err)
	}
	idx := indexOfProject(projects, id)
	if idx < 0 {
		return false, nil
	}
	fn(&projects[idx])
	if err := c.repo.SaveProjects(projects); err != nil {
		return true, &types.PersistError{Op: op, Err: err}
	}
	return true, nil
}

// fill recomputes the derived project fields from its state.
func (c *Catalog) fill(p *types.Project) error {
	st, err := c.repo.Load(p.ID)
	if err != nil {
		return fmt.Errorf("load project %s: %w", p.ID, err)
	}
	p.CaseCount = st.CaseCount()
	p.LastTested = st.LastTested()
	if p.Status == "" {
		p.Status = types.ProjectStatusActive
	}
	return nil
}

func indexOfProject(projects []types.Project, id string) int {
	for i := range projects {
		if projects[i].ID == id {
			return i
		}
	}
	return -1
}
