package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/besttest/besttest/internal/store"
	"github.com/besttest/besttest/pkg/types"
)

// validationErrors map to 400 Bad Request.
var validationErrors = []error{
	types.ErrInvalidName,
	types.ErrInvalidTitle,
	types.ErrInvalidPriority,
	types.ErrInvalidType,
	types.ErrInvalidVerdict,
	types.ErrInvalidID,
	types.ErrInvalidStatus,
	types.ErrEmptyImport,
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrSessionStarted), errors.Is(err, types.ErrSessionFinished), errors.Is(err, types.ErrSessionNotStarted):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": ...} with the mapped status.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// respondChange answers a soft-fail mutation: 204 when nothing matched,
// otherwise status with body.
func respondChange(c *gin.Context, changed bool, err error, status int, body any) {
	if err != nil {
		respondError(c, err)
		return
	}
	if !changed {
		c.Status(http.StatusNoContent)
		return
	}
	if body == nil {
		body = gin.H{"ok": true}
	}
	c.JSON(status, body)
}

// bindJSON decodes the request body or writes a 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return false
	}
	return true
}

// storeFor returns the cached store of the :pid project, opening it on first
// use. It writes 404 for an unknown project.
func (s *Server) storeFor(c *gin.Context) (*store.Store, bool) {
	pid := c.Param("pid")

	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.stores[pid]; ok {
		return st, true
	}
	st, err := s.catalog.OpenStore(pid, store.WithLogger(s.logger))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return nil, false
		}
		respondError(c, err)
		return nil, false
	}
	s.stores[pid] = st
	return st, true
}
