package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// globalLimiter gates every mutating/ranking endpoint behind one shared
// token bucket (spec.md §5: a single global rate limit, not per
// participant — participants compete for the same throughput budget). A
// request over the limit is delayed until the bucket admits it rather than
// rejected, so throughput is throttled without ever surfacing a rate-limit
// error to a participant. limiter.Wait queues callers in arrival order,
// which keeps this FIFO and starvation-free.
func globalLimiterMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := limiter.Wait(c.Request.Context()); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"status":  "error",
				"message": "request cancelled while waiting for rate limiter",
			})
			return
		}
		c.Next()
	}
}

const contextKeyParticipantID = "arena_participant_id"
const contextKeyCompetitionID = "arena_competition_id"

// participantAuthMiddleware verifies the bearer credential issued at
// registration and confirms it is scoped to the competition_id/
// participant_id path parameters being accessed, so one participant's
// token can never be replayed against another participant's state.
func participantAuthMiddleware(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == "" || tokenString == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "missing bearer token",
			})
			return
		}

		competitionID, participantID, err := issuer.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status":  "error",
				"message": "invalid token",
			})
			return
		}

		if pathCompetitionID := c.Param("competition_id"); pathCompetitionID != "" && pathCompetitionID != competitionID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": "token not valid for this competition",
			})
			return
		}
		if pathParticipantID := c.Param("participant_id"); pathParticipantID != "" && pathParticipantID != participantID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": "token not valid for this participant",
			})
			return
		}

		c.Set(contextKeyParticipantID, participantID)
		c.Set(contextKeyCompetitionID, competitionID)
		c.Next()
	}
}
