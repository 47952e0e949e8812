package planner

import (
	"context"
	"strings"

	"github.com/nyashahama/diabetes-risk-planner/internal/ai"
	"github.com/nyashahama/diabetes-risk-planner/internal/prompts"
	"github.com/nyashahama/diabetes-risk-planner/internal/render"
)

// SearchResult pairs a generated description with the catalog video for the
// term. VideoID is empty for an unlisted term.
type SearchResult struct {
	Term            string    `json:"term"`
	Description     ai.Result `json:"description"`
	DescriptionHTML string    `json:"description_html,omitempty"`
	VideoID         string    `json:"video_id"`

	// Known lists the catalog terms, for suggestions.
	Known []string `json:"known"`
}

// SearchExercise describes how to perform term. An empty term returns only
// the known exercise names.
func (s *Service) SearchExercise(ctx context.Context, term string) SearchResult {
	return s.search(ctx, term, prompts.Exercise, s.catalog.ExerciseVideo, s.catalog.ExerciseNames())
}

// SearchFood describes the benefits of term. An empty term returns only the
// known food names.
func (s *Service) SearchFood(ctx context.Context, term string) SearchResult {
	return s.search(ctx, term, prompts.Food, s.catalog.FoodVideo, s.catalog.FoodNames())
}

func (s *Service) search(
	ctx context.Context,
	term string,
	prompt func(string) string,
	video func(string) string,
	known []string,
) SearchResult {
	term = strings.TrimSpace(term)
	res := SearchResult{Term: term, Known: known}
	if term == "" {
		return res
	}

	res.Description = s.gateway.Generate(ctx, prompt(term))
	res.DescriptionHTML = render.Result(res.Description)
	res.VideoID = video(term)
	return res
}
