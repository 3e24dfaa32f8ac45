package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arenahq/arena/pkg/models"
)

type submitRequest struct {
	ProblemID  string `json:"problem_id" binding:"required"`
	SourceCode string `json:"source_code" binding:"required"`
	Language   string `json:"language" binding:"required"`
}

type submissionResult struct {
	Verdict     string           `json:"verdict"`
	PassScore   int              `json:"pass_score"`
	Feedback    string           `json:"feedback"`
	Participant participantView `json:"participant"`
}

// handleSubmit runs a participant's code through the judge and records the
// result transactionally through pkg/scoring (spec.md §4.4, §4.5).
func (s *Server) handleSubmit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	competitionID := c.Param("competition_id")
	participantID := c.Param("participant_id")

	comp, err := s.store.GetCompetition(ctx, competitionID)
	if err != nil {
		respondError(c, err)
		return
	}
	problem, err := s.store.GetProblem(ctx, competitionID, req.ProblemID)
	if err != nil {
		respondError(c, err)
		return
	}
	cases, err := s.problems.LoadTestCases(req.ProblemID)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := s.judge.Evaluate(ctx, req.SourceCode, req.Language, problem, cases)
	if err != nil {
		respondError(c, err)
		return
	}

	sub := models.Submission{
		ID:            newID("sub"),
		CompetitionID: competitionID,
		ParticipantID: participantID,
		ProblemID:     req.ProblemID,
		SourceCode:    req.SourceCode,
		Language:      req.Language,
		SubmittedAt:   time.Now(),
		Verdict:       result.Verdict,
		Tests:         result.Tests,
		Feedback:      result.Feedback,
	}

	baseScore := comp.Rules.BaseScore(problem.Level)
	recorded, p, err := s.engine.RecordSubmission(ctx, competitionID, participantID, req.ProblemID, sub, baseScore, comp.Rules)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": submissionResult{
			Verdict:     string(recorded.Verdict),
			PassScore:   recorded.PassScore,
			Feedback:    recorded.Feedback,
			Participant: toParticipantView(p),
		},
	})
}
