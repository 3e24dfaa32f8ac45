package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type rankingRow struct {
	Rank          int    `json:"rank"`
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
}

// handleRankings recomputes every participant's derived score through
// pkg/scoring and returns them ordered by score descending, then
// problem_pass_score descending, with dense ranks (equal scores share a
// rank).
func (s *Server) handleRankings(c *gin.Context) {
	ranked, err := s.engine.Rankings(c.Request.Context(), c.Param("competition_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	rows := make([]rankingRow, len(ranked))
	for i, r := range ranked {
		rows[i] = rankingRow{Rank: r.Rank, ParticipantID: r.ID, Name: r.Name, Score: r.Score}
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": rows})
}
