package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/besttest/besttest/internal/aggregate"
	"github.com/besttest/besttest/pkg/types"
)

type planRequest struct {
	Title     string   `json:"title"`
	TestCases []string `json:"testCases"`
}

// planView is a plan with its references resolved against the live
// hierarchy.
type planView struct {
	types.TestPlan
	Cases      []types.CaseView `json:"cases"`
	Dangling   []types.CaseRef  `json:"dangling"`
	Completion float64          `json:"completion"`
}

// listPlans handles GET /api/projects/:pid/plans
func (s *Server) listPlans(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, st.Plans())
}

// createPlan handles POST /api/projects/:pid/plans
func (s *Server) createPlan(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	var req planRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := st.CreateTestPlan(req.Title, req.TestCases)
	respondChange(c, true, err, http.StatusCreated, p)
}

// getPlan handles GET /api/projects/:pid/plans/:id
func (s *Server) getPlan(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	p, found := st.Plan(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}
	live, dangling, err := st.ResolvePlan(p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	view := planView{TestPlan: p, Cases: live, Dangling: dangling}
	if latest, ok := st.LatestResultForPlan(p.ID); ok {
		view.Completion = aggregate.PlanCompletion(p, &latest)
	}
	c.JSON(http.StatusOK, view)
}

// updatePlan handles PUT /api/projects/:pid/plans/:id
func (s *Server) updatePlan(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	var req planRequest
	if !bindJSON(c, &req) {
		return
	}
	changed, err := st.UpdateTestPlan(c.Param("id"), req.Title, req.TestCases)
	respondChange(c, changed, err, http.StatusOK, nil)
}

// deletePlan handles DELETE /api/projects/:pid/plans/:id
func (s *Server) deletePlan(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	changed, err := st.DeleteTestPlan(c.Param("id"))
	respondChange(c, changed, err, http.StatusOK, nil)
}

// duplicatePlan handles POST /api/projects/:pid/plans/:id/duplicate
func (s *Server) duplicatePlan(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	p, created, err := st.DuplicateTestPlan(c.Param("id"))
	respondChange(c, created, err, http.StatusCreated, p)
}

// planCompletion handles GET /api/projects/:pid/plans/:id/completion
func (s *Server) planCompletion(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	p, found := st.Plan(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}
	resp := gin.H{"planId": p.ID, "completion": 0.0}
	if latest, ok := st.LatestResultForPlan(p.ID); ok {
		resp["completion"] = aggregate.PlanCompletion(p, &latest)
		resp["resultId"] = latest.ID
	}
	c.JSON(http.StatusOK, resp)
}
