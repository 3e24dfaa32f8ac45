package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sampleIO struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

type problemView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Level       string     `json:"level"`
	TimeLimitMS int        `json:"time_limit_ms"`
	Samples     []sampleIO `json:"samples"`
}

// handleGetProblem returns the public view of a problem: description,
// limits and sample cases, never the hidden test cases or solution
// (spec.md §4.2: samples only).
func (s *Server) handleGetProblem(c *gin.Context) {
	problem, err := s.store.GetProblem(c.Request.Context(), c.Param("competition_id"), c.Param("problem_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	samples := make([]sampleIO, len(problem.Samples))
	for i, cs := range problem.Samples {
		samples[i] = sampleIO{Input: string(cs.Input), Output: string(cs.ExpectedOutput)}
	}

	c.JSON(http.StatusOK, problemView{
		ID:          problem.ID,
		Title:       problem.Title,
		Description: problem.Description,
		Level:       string(problem.Level),
		TimeLimitMS: problem.TimeLimitMS,
		Samples:     samples,
	})
}
