// Package api implements the arena's HTTP action protocol (spec.md §4.7):
// the surface every participant agent calls to view problems, submit
// solutions, request hints, watch rankings and make LLM calls, atop gin
// the way the teacher's cmd/tarsy/main.go does for its own orchestrator
// API.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/arenahq/arena/pkg/corpus"
	"github.com/arenahq/arena/pkg/database"
	"github.com/arenahq/arena/pkg/hints"
	"github.com/arenahq/arena/pkg/judge"
	"github.com/arenahq/arena/pkg/llmproxy"
	"github.com/arenahq/arena/pkg/scoring"
)

// Server wires every arena component into the gin router.
type Server struct {
	store    *database.Store
	engine   *scoring.Engine
	judge    *judge.Client
	problems *corpus.ProblemLoader
	hints    *hints.Service
	llm      *llmproxy.Proxy
	issuer   *TokenIssuer
	limiter  *rate.Limiter
}

// Deps bundles every dependency Server needs, assembled by cmd/arena.
type Deps struct {
	Store           *database.Store
	Engine          *scoring.Engine
	Judge           *judge.Client
	Problems        *corpus.ProblemLoader
	Hints           *hints.Service
	LLM             *llmproxy.Proxy
	TokenSecret     string
	RateLimitPerSec float64
	RateLimitBurst  int
}

// NewServer builds a Server from deps.
func NewServer(deps Deps) (*Server, error) {
	issuer, err := NewTokenIssuer(deps.TokenSecret)
	if err != nil {
		return nil, err
	}
	return &Server{
		store:    deps.Store,
		engine:   deps.Engine,
		judge:    deps.Judge,
		problems: deps.Problems,
		hints:    deps.Hints,
		llm:      deps.LLM,
		issuer:   issuer,
		limiter:  rate.NewLimiter(rate.Limit(deps.RateLimitPerSec), deps.RateLimitBurst),
	}, nil
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/health", s.handleHealth)

	limited := r.Group("/", globalLimiterMiddleware(s.limiter))

	limited.POST("/competitions/create", s.handleCreateCompetition)
	limited.GET("/competitions/:competition_id", s.handleGetCompetition)
	limited.GET("/competitions", s.handleListCompetitions)
	limited.POST("/competitions/:competition_id/end", s.handleEndCompetition)

	limited.GET("/problems/:competition_id/:problem_id", s.handleGetProblem)

	limited.POST("/participants/create/:competition_id", s.handleCreateParticipant)

	auth := limited.Group("/", participantAuthMiddleware(s.issuer))
	auth.GET("/participants/:competition_id/:participant_id", s.handleGetParticipant)
	auth.POST("/submissions/create/:competition_id/:participant_id", s.handleSubmit)
	auth.POST("/hints/get/:competition_id/:participant_id", s.handleGetHint)
	auth.POST("/agent/call/:competition_id/:participant_id", s.handleAgentCall)
	auth.POST("/participants/terminate/:competition_id/:participant_id", s.handleTerminate)

	limited.GET("/rankings/get/:competition_id", s.handleRankings)

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	status, err := database.Health(c.Request.Context(), s.store.DB())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": status, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": status})
}

// newID generates a primary key, grounded on the teacher's use of
// google/uuid for every entity ID.
func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
