package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arenahq/arena/pkg/models"
)

type createParticipantRequest struct {
	Name        string `json:"name" binding:"required"`
	LLMEndpoint string `json:"llm_endpoint" binding:"required"`
	LLMKey      string `json:"llm_key"`
}

// handleCreateParticipant registers a participant and issues its scoped
// bearer credential. The credential is returned exactly once, here; it is
// never retrievable again (spec.md §4.7).
func (s *Server) handleCreateParticipant(c *gin.Context) {
	var req createParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	competitionID := c.Param("competition_id")
	ctx := c.Request.Context()

	comp, err := s.store.GetCompetition(ctx, competitionID)
	if err != nil {
		respondError(c, err)
		return
	}

	p := models.Participant{
		ID:              newID("part"),
		CompetitionID:   competitionID,
		Name:            req.Name,
		LLMEndpoint:     req.LLMEndpoint,
		LLMKey:          req.LLMKey,
		LimitTokens:     comp.MaxTokensPerParticipant,
		RemainingTokens: comp.MaxTokensPerParticipant,
		LambdaValue:     comp.Rules.Lambda,
		IsRunning:       true,
	}

	if err := s.store.CreateParticipant(ctx, p); err != nil {
		respondError(c, err)
		return
	}
	if err := s.store.IncrementParticipantCount(ctx, competitionID); err != nil {
		respondError(c, err)
		return
	}

	token, err := s.issuer.Issue(competitionID, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data": gin.H{
			"participant": toParticipantView(p),
			"token":       token,
		},
	})
}

func (s *Server) handleGetParticipant(c *gin.Context) {
	p, err := s.store.GetParticipant(c.Request.Context(), c.Param("competition_id"), c.Param("participant_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	solved, err := s.engine.SolvedProblems(c.Request.Context(), p.CompetitionID, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	view := toParticipantView(p)
	view.SolvedProblems = solved
	c.JSON(http.StatusOK, view)
}

type terminateRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleTerminate(c *gin.Context) {
	var req terminateRequest
	_ = c.ShouldBindJSON(&req)

	reason := models.ReasonManualTermination
	switch models.TerminationReason(req.Reason) {
	case models.ReasonTimeout, models.ReasonError, models.ReasonCompetitorTerminated:
		reason = models.TerminationReason(req.Reason)
	}

	p, err := s.engine.Terminate(c.Request.Context(), c.Param("competition_id"), c.Param("participant_id"), reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": toParticipantView(p)})
}

type participantView struct {
	ID                string   `json:"id"`
	IsRunning         bool     `json:"is_running"`
	TerminationReason string   `json:"termination_reason,omitempty"`
	RemainingTokens   int      `json:"remaining_tokens"`
	Score             int      `json:"score"`
	SolvedProblems    []string `json:"solved_problems,omitempty"`
}

func toParticipantView(p models.Participant) participantView {
	return participantView{
		ID:                p.ID,
		IsRunning:         p.IsRunning,
		TerminationReason: string(p.TerminationReason),
		RemainingTokens:   p.RemainingTokens,
		Score:             p.Score,
	}
}
