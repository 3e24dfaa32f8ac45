package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arenahq/arena/pkg/organizer"
)

// runConfig is the JSON shape read by `arena run`, describing one
// competition to create and the competitors to run against it.
type runConfig struct {
	Title                   string                     `json:"title"`
	Description             string                     `json:"description"`
	ProblemIDs              []string                   `json:"problem_ids"`
	MaxTokensPerParticipant int                        `json:"max_tokens_per_participant"`
	Competitors             []organizer.CompetitorSpec `json:"competitors"`
}

func newRunCmd() *cobra.Command {
	var apiBaseURL string
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create a competition and run every configured competitor against it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompetition(apiBaseURL, configPath)
		},
	}
	cmd.Flags().StringVar(&apiBaseURL, "api", "http://localhost:8080", "Base URL of a running arena serve instance")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a JSON competition/competitor config file")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runCompetition(apiBaseURL, configPath string) error {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read run config: %w", err)
	}

	var rc runConfig
	if err := json.Unmarshal(raw, &rc); err != nil {
		return fmt.Errorf("parse run config: %w", err)
	}

	org := organizer.New(apiBaseURL)
	results, err := org.Run(context.Background(), organizer.CompetitionSpec{
		Title:                   rc.Title,
		Description:             rc.Description,
		ProblemIDs:              rc.ProblemIDs,
		MaxTokensPerParticipant: rc.MaxTokensPerParticipant,
	}, rc.Competitors)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
