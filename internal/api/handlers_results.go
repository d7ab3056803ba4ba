package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/besttest/besttest/internal/aggregate"
	"github.com/besttest/besttest/internal/session"
	"github.com/besttest/besttest/internal/store"
	"github.com/besttest/besttest/pkg/types"
)

type verdictRequest struct {
	Key         string   `json:"key"`
	Result      string   `json:"result"`
	Comments    string   `json:"comments"`
	Screenshots []string `json:"screenshots"`
}

// listResults handles GET /api/projects/:pid/results
func (s *Server) listResults(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, st.Results())
}

// getResult handles GET /api/projects/:pid/results/:id
func (s *Server) getResult(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	r, found := st.Result(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Result not found"})
		return
	}
	c.JSON(http.StatusOK, r)
}

// recordResult handles POST /api/projects/:pid/results. The body names a
// plan (or none for a manual run over every case) and the verdicts entered
// for it; cases without a verdict are recorded as Not Tested.
func (s *Server) recordResult(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	var req struct {
		PlanID   string           `json:"planId"`
		Verdicts []verdictRequest `json:"verdicts"`
	}
	if !bindJSON(c, &req) {
		return
	}

	sess, _, err := session.Begin(st, req.PlanID)
	if err != nil {
		respondError(c, err)
		return
	}
	for _, v := range req.Verdicts {
		verdict, err := types.ParseVerdict(v.Result)
		if err != nil {
			respondError(c, fmt.Errorf("case %s: %w", v.Key, err))
			return
		}
		if err := sess.SetVerdict(v.Key, verdict, v.Comments); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(v.Screenshots) > 0 {
			if err := sess.SetEvidence(v.Key, v.Screenshots); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
	}
	r, err := sess.Finish(st)
	respondChange(c, true, err, http.StatusCreated, r)
}

// renameResult handles PUT /api/projects/:pid/results/:id
func (s *Server) renameResult(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	var req struct {
		PlanName string `json:"planName"`
	}
	if !bindJSON(c, &req) {
		return
	}
	changed, err := st.RenameTestResult(c.Param("id"), req.PlanName)
	respondChange(c, changed, err, http.StatusOK, nil)
}

// deleteResult handles DELETE /api/projects/:pid/results/:id
func (s *Server) deleteResult(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	changed, err := st.DeleteTestResult(c.Param("id"))
	respondChange(c, changed, err, http.StatusOK, nil)
}

// summary handles GET /api/projects/:pid/summary
func (s *Server) summary(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, aggregate.Summarize(st.Snapshot()))
}

// importRecords handles POST /api/projects/:pid/import
func (s *Server) importRecords(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	var records []store.ImportRecord
	if !bindJSON(c, &records) {
		return
	}
	sum, err := st.ImportRecords(records)
	respondChange(c, true, err, http.StatusCreated, sum)
}
