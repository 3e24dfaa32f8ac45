package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arenahq/arena/pkg/config"
	"github.com/arenahq/arena/pkg/models"
)

type createCompetitionRequest struct {
	Title                   string        `json:"title" binding:"required"`
	Description             string        `json:"description"`
	ProblemIDs              []string      `json:"problem_ids" binding:"required"`
	MaxTokensPerParticipant int           `json:"max_tokens_per_participant" binding:"required,gt=0"`
	Rules                   *models.Rules `json:"rules"`
}

func defaultRules() models.Rules {
	return models.Rules{
		Scoring: map[models.Level]int{
			models.LevelBronze: 100, models.LevelSilver: 200,
			models.LevelGold: 300, models.LevelPlatinum: 500,
		},
		BonusForFirstAC: 20,
		Penalties:       map[models.Verdict]int{models.VerdictWA: 5, models.VerdictRE: 5, models.VerdictTLE: 5, models.VerdictMLE: 5, models.VerdictCE: 2},
		SubmissionTokens: map[models.Verdict]int{
			models.VerdictAC: 50, models.VerdictWA: 50, models.VerdictRE: 50,
			models.VerdictTLE: 50, models.VerdictMLE: 50, models.VerdictCE: 10,
		},
		HintTokens: map[string]int{"level_0": 10, "level_1": 30, "level_2": 60, "level_3": 90, "level_4": 120},
		Lambda:     100,
	}
}

// handleCreateCompetition registers a new competition and every problem
// whose ID is found in the corpus, reporting any IDs that were not found
// rather than failing the whole request (grounded on
// original_source/scripts/competition_organizer.py's "not_found_problems"
// field).
func (s *Server) handleCreateCompetition(c *gin.Context) {
	var req createCompetitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	rules := defaultRules()
	if req.Rules != nil {
		merged, err := config.MergeRules(rules, *req.Rules)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
			return
		}
		rules = merged
	}

	comp := models.Competition{
		ID:                      newID("comp"),
		Title:                   req.Title,
		Description:             req.Description,
		StartedAt:               time.Now(),
		MaxTokensPerParticipant: req.MaxTokensPerParticipant,
		Rules:                   rules,
		IsActive:                true,
	}

	ctx := c.Request.Context()
	if err := s.store.CreateCompetition(ctx, comp); err != nil {
		respondError(c, err)
		return
	}

	var registered []models.Problem
	var notFound []string
	for _, id := range req.ProblemIDs {
		rec, err := s.problems.LoadProblem(id)
		if err != nil {
			notFound = append(notFound, id)
			continue
		}
		problem := rec.ToProblem(comp.ID)
		if err := s.store.CreateProblem(ctx, problem); err != nil {
			respondError(c, err)
			return
		}
		if err := s.store.IncrementProblemCount(ctx, comp.ID); err != nil {
			respondError(c, err)
			return
		}
		registered = append(registered, problem)
	}
	comp.ProblemCount = len(registered)

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data": gin.H{
			"competition":         toCompetitionView(comp, registered),
			"not_found_problems":  notFound,
		},
	})
}

func (s *Server) handleGetCompetition(c *gin.Context) {
	ctx := c.Request.Context()
	comp, err := s.store.GetCompetition(ctx, c.Param("competition_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	problems, err := s.store.ListProblems(ctx, comp.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCompetitionView(comp, problems))
}

func (s *Server) handleListCompetitions(c *gin.Context) {
	var activeOnly *bool
	if v := c.Query("active"); v != "" {
		b := v == "true"
		activeOnly = &b
	}
	comps, err := s.store.ListCompetitions(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": comps})
}

func (s *Server) handleEndCompetition(c *gin.Context) {
	if err := s.store.EndCompetition(c.Request.Context(), c.Param("competition_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

type competitionView struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	IsActive     bool           `json:"is_active"`
	ProblemCount int            `json:"problem_count"`
	Problems     []problemBrief `json:"problems"`
}

func toCompetitionView(comp models.Competition, problems []models.Problem) competitionView {
	briefs := make([]problemBrief, len(problems))
	for i, p := range problems {
		briefs[i] = problemBrief{ID: p.ID, Title: p.Title, Level: string(p.Level), TimeLimitMS: p.TimeLimitMS}
	}
	return competitionView{
		ID:           comp.ID,
		Title:        comp.Title,
		Description:  comp.Description,
		IsActive:     comp.IsActive,
		ProblemCount: comp.ProblemCount,
		Problems:     briefs,
	}
}

type problemBrief struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Level       string `json:"level"`
	TimeLimitMS int    `json:"time_limit_ms"`
}
