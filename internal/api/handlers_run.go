package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/besttest/besttest/internal/executor"
	"github.com/besttest/besttest/internal/session"
	"github.com/besttest/besttest/pkg/types"
)

// runPlan handles POST /api/projects/:pid/runs. Every case of the plan is
// executed by the server's executor and the verdicts are recorded as one
// result.
func (s *Server) runPlan(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	var req struct {
		PlanID string `json:"planId"`
	}
	if !bindJSON(c, &req) {
		return
	}

	sess, _, err := session.Begin(st, req.PlanID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := sess.RunAll(c.Request.Context(), s.exec, nil, s.logger); err != nil {
		respondError(c, err)
		return
	}
	r, err := sess.Finish(st)
	respondChange(c, true, err, http.StatusCreated, r)
}

// runFramework handles POST /api/{framework}/run with the simulated
// executor.
func (s *Server) runFramework(framework string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req executor.RunRequest
		if !bindJSON(c, &req) {
			return
		}
		if strings.TrimSpace(req.TestName) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "testName is required"})
			return
		}
		priority, err := types.ParsePriority(req.Priority)
		if err != nil {
			priority = types.PriorityMedium
		}

		cv := types.CaseView{TestCase: types.TestCase{
			Name:      req.TestName,
			Priority:  priority,
			Reference: strings.Join(req.Tags, ","),
			Steps:     req.Description,
		}}
		out, err := s.exec.Run(c.Request.Context(), cv)
		if err != nil {
			c.JSON(http.StatusOK, executor.RunResponse{
				Status:      "error",
				Message:     err.Error(),
				Screenshots: []string{},
			})
			return
		}

		screenshots := out.Screenshots
		if screenshots == nil {
			screenshots = []string{}
		}
		s.logger.Debug("framework run", "framework", framework, "test", req.TestName, "verdict", out.Verdict)
		c.JSON(http.StatusOK, executor.RunResponse{
			Status:      strings.ToLower(string(out.Verdict)),
			Message:     out.Message,
			Duration:    out.Duration.Seconds(),
			Screenshots: screenshots,
		})
	}
}
