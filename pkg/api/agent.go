package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	goopenai "github.com/sashabaranov/go-openai"
)

// handleAgentCall lets a participant route a chat-completion call through
// the arena so its token usage is debited against the participant's own
// budget rather than charged directly to the operator's provider account
// (spec.md §4.8).
func (s *Server) handleAgentCall(c *gin.Context) {
	var req goopenai.ChatCompletionRequest
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
	participant, err := s.store.GetParticipant(ctx, competitionID, participantID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses, updated, err := s.llm.Call(ctx, competitionID, participant, req, comp.Rules)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"response":    responses[0],
			"participant": toParticipantView(updated),
		},
	})
}
