package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/besttest/besttest/internal/evidence"
)

// listEvidence handles GET /api/evidence
func (s *Server) listEvidence(c *gin.Context) {
	files, err := s.evidence.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(files), "files": files})
}

// deleteEvidence handles DELETE /api/evidence/*path
func (s *Server) deleteEvidence(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("path"), "/")
	changed, err := s.evidence.Delete(name)
	if errors.Is(err, evidence.ErrInvalidPath) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	respondChange(c, changed, err, http.StatusOK, gin.H{"message": "Deleted " + name})
}

// resultEvidence handles GET /api/projects/:pid/results/:id/evidence
func (s *Server) resultEvidence(c *gin.Context) {
	if s.evidence == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Evidence directory not configured"})
		return
	}
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	r, found := st.Result(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Result not found"})
		return
	}
	attachments, err := s.evidence.ForResult(r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attachments)
}
