package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/besttest/besttest/pkg/types"
)

// listModules handles GET /api/projects/:pid/modules
func (s *Server) listModules(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, st.Modules())
}

// createModule handles POST /api/projects/:pid/modules
func (s *Server) createModule(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	var req nameRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := st.CreateModule(req.Name)
	respondChange(c, true, err, http.StatusCreated, m)
}

// renameModule handles PUT /api/projects/:pid/modules/:mid
func (s *Server) renameModule(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	var req nameRequest
	if !bindJSON(c, &req) {
		return
	}
	changed, err := st.RenameModule(c.Param("mid"), req.Name)
	respondChange(c, changed, err, http.StatusOK, nil)
}

// deleteModule handles DELETE /api/projects/:pid/modules/:mid
func (s *Server) deleteModule(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	changed, err := st.DeleteModule(c.Param("mid"))
	respondChange(c, changed, err, http.StatusOK, nil)
}

// toggleModule handles POST /api/projects/:pid/modules/:mid/toggle
func (s *Server) toggleModule(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	changed, err := st.ToggleModule(c.Param("mid"))
	respondChange(c, changed, err, http.StatusOK, nil)
}

// createScenario handles POST /api/projects/:pid/modules/:mid/scenarios
func (s *Server) createScenario(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	var req nameRequest
	if !bindJSON(c, &req) {
		return
	}
	sc, created, err := st.CreateScenario(c.Param("mid"), req.Name)
	respondChange(c, created, err, http.StatusCreated, sc)
}

// renameScenario handles PUT /api/projects/:pid/modules/:mid/scenarios/:sid
func (s *Server) renameScenario(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	var req nameRequest
	if !bindJSON(c, &req) {
		return
	}
	changed, err := st.RenameScenario(c.Param("mid"), c.Param("sid"), req.Name)
	respondChange(c, changed, err, http.StatusOK, nil)
}

// deleteScenario handles DELETE /api/projects/:pid/modules/:mid/scenarios/:sid
func (s *Server) deleteScenario(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	changed, err := st.DeleteScenario(c.Param("mid"), c.Param("sid"))
	respondChange(c, changed, err, http.StatusOK, nil)
}

// toggleScenario handles POST /api/projects/:pid/modules/:mid/scenarios/:sid/toggle
func (s *Server) toggleScenario(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	changed, err := st.ToggleScenario(c.Param("mid"), c.Param("sid"))
	respondChange(c, changed, err, http.StatusOK, nil)
}

// createCase handles POST .../scenarios/:sid/cases
func (s *Server) createCase(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	var req types.TestCase
	if !bindJSON(c, &req) {
		return
	}
	tc, created, err := st.CreateTestCase(c.Param("mid"), c.Param("sid"), req)
	respondChange(c, created, err, http.StatusCreated, tc)
}

// updateCase handles PUT .../scenarios/:sid/cases/:key
func (s *Server) updateCase(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	var req types.TestCase
	if !bindJSON(c, &req) {
		return
	}
	changed, err := st.UpdateTestCase(c.Param("mid"), c.Param("sid"), c.Param("key"), req)
	respondChange(c, changed, err, http.StatusOK, nil)
}

// deleteCase handles DELETE .../scenarios/:sid/cases/:key
func (s *Server) deleteCase(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	changed, err := st.DeleteTestCase(c.Param("mid"), c.Param("sid"), c.Param("key"))
	respondChange(c, changed, err, http.StatusOK, nil)
}

// duplicateCase handles POST .../scenarios/:sid/cases/:key/duplicate
func (s *Server) duplicateCase(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	tc, created, err := st.DuplicateTestCase(c.Param("mid"), c.Param("sid"), c.Param("key"))
	respondChange(c, created, err, http.StatusCreated, tc)
}

// listCases handles GET /api/projects/:pid/cases?q=
func (s *Server) listCases(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	cases := st.Search(c.Query("q"))
	if cases == nil {
		cases = []types.CaseView{}
	}
	c.JSON(http.StatusOK, cases)
}

// regenerateCaseIDs handles POST /api/projects/:pid/cases/regenerate-ids
func (s *Server) regenerateCaseIDs(c *gin.Context) {
	st, ok := s.storeFor(c)
	if !ok {
		return
	}
	n, err := st.RegenerateCaseIDs()
	respondChange(c, n > 0, err, http.StatusOK, gin.H{"relabeled": n})
}
