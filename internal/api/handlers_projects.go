package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type nameRequest struct {
	Name string `json:"name"`
}

// listProjects handles GET /api/projects
func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.catalog.Projects()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// createProject handles POST /api/projects
func (s *Server) createProject(c *gin.Context) {
	var req nameRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := s.catalog.CreateProject(req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// getProject handles GET /api/projects/:pid
func (s *Server) getProject(c *gin.Context) {
	p, err := s.catalog.Project(c.Param("pid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// updateProject handles PUT /api/projects/:pid
func (s *Server) updateProject(c *gin.Context) {
	var req struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	pid := c.Param("pid")

	changed := false
	if req.Name != "" {
		ok, err := s.catalog.RenameProject(pid, req.Name)
		if err != nil {
			respondError(c, err)
			return
		}
		changed = ok
	}
	if req.Status != "" {
		ok, err := s.catalog.SetProjectStatus(pid, req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		changed = changed || ok
	}
	if !changed {
		c.Status(http.StatusNoContent)
		return
	}
	p, err := s.catalog.Project(pid)
	respondChange(c, true, err, http.StatusOK, p)
}

// deleteProject handles DELETE /api/projects/:pid. The cached store is
// detached before the purge; s.mu stays held so no request reopens it
// in between.
func (s *Server) deleteProject(c *gin.Context) {
	pid := c.Param("pid")

	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stores[pid]; ok {
		st.Detach()
		delete(s.stores, pid)
	}
	changed, err := s.catalog.DeleteProject(pid)
	respondChange(c, changed, err, http.StatusOK, nil)
}
