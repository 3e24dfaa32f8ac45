package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arenahq/arena/pkg/hints"
	"github.com/arenahq/arena/pkg/models"
)

type hintRequest struct {
	ProblemID         string `json:"problem_id"`
	Level             int    `json:"level"`
	HintKnowledge     string `json:"hint_knowledge"`
	ProblemDifficulty string `json:"problem_difficulty"`
}

type hintResult struct {
	Title           string                      `json:"title"`
	Content         string                      `json:"content,omitempty"`
	TextbookMatches []hints.TextbookMatch       `json:"textbook_matches,omitempty"`
	SimilarProblems []hints.SimilarProblemMatch `json:"similar_problems,omitempty"`
	GuideMatch      *hints.GuideMatch           `json:"guide_match,omitempty"`
	Participant     participantView             `json:"participant"`
}

// handleGetHint dispatches to pkg/hints, which debits the hint's token cost
// before assembling content (spec.md §4.6).
func (s *Server) handleGetHint(c *gin.Context) {
	var req hintRequest
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

	problems, err := s.store.ListProblems(ctx, competitionID)
	if err != nil {
		respondError(c, err)
		return
	}
	problemIDs := make([]string, len(problems))
	for i, p := range problems {
		problemIDs[i] = p.ID
	}

	hint, p, err := s.hints.Get(ctx, competitionID, participantID, req.ProblemID, models.HintLevel(req.Level), req.HintKnowledge, req.ProblemDifficulty, comp.Rules, problemIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": hintResult{
			Title:           hint.Title,
			Content:         hint.Content,
			TextbookMatches: hint.TextbookMatches,
			SimilarProblems: hint.SimilarProblems,
			GuideMatch:      hint.GuideMatch,
			Participant:     toParticipantView(p),
		},
	})
}
