// Package generate turns a refined requirement into code and tests and repairs
// them from verification feedback.
package generate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/clarify-verify/internal/pipeline"
	"github.com/temirov/clarify-verify/internal/prompts"
)

const (
	generateOperation = "generate"
	repairOperation   = "repair"

	blankResponseReason = "backend returned an empty response"
	noCodeBlockReason   = "response contained no code block"
)

type Generator struct {
	Client      pipeline.LLMClient
	Prompts     prompts.Set
	Profile     pipeline.LanguageProfile
	Model       string
	Temperature float64
	Logger      *zap.Logger
}

// Failure is what a repair prompt is built from.
type Failure struct {
	Requirement   string
	FailedOracles []string
	Summary       string
}

// Generate produces the first artifact (version 0). Only the first design
// artifact is given to the backend.
func (g Generator) Generate(ctx context.Context, refined string, designs []pipeline.DesignArtifact) (pipeline.CodeArtifact, error) {
	vars := g.profileVars()
	vars["requirement"] = refined
	vars["design"] = formatDesign(designs)
	system, user, err := g.Prompts.Render(prompts.Generate, vars)
	if err != nil {
		return pipeline.CodeArtifact{}, err
	}
	raw, err := g.chat(ctx, generateOperation, system, user)
	if err != nil {
		return pipeline.CodeArtifact{}, err
	}
	extraction, err := extractCode(raw)
	if err != nil {
		return pipeline.CodeArtifact{}, err
	}
	if extraction.Tests == "" {
		g.logger().Warn("generation returned no test block")
	}
	return pipeline.CodeArtifact{
		Version:     0,
		Language:    vars["language"],
		Code:        extraction.Code,
		Tests:       extraction.Tests,
		Explanation: extraction.Explanation,
	}, nil
}

// Repair builds a self-contained prompt from the previous artifact and the
// failure. Tests are carried over when the backend returns none.
func (g Generator) Repair(ctx context.Context, previous pipeline.CodeArtifact, failure Failure) (pipeline.CodeArtifact, error) {
	vars := g.profileVars()
	vars["requirement"] = failure.Requirement
	vars["failed_oracles"] = strings.Join(failure.FailedOracles, ", ")
	vars["failure_summary"] = failure.Summary
	vars["code"] = previous.Code
	vars["tests"] = previous.Tests
	system, user, err := g.Prompts.Render(prompts.Repair, vars)
	if err != nil {
		return previous, err
	}
	raw, err := g.chat(ctx, repairOperation, system, user)
	if err != nil {
		return previous, err
	}
	extraction, err := extractCode(raw)
	if err != nil {
		return previous, err
	}
	tests := extraction.Tests
	if tests == "" {
		tests = previous.Tests
	}
	return pipeline.CodeArtifact{
		Version:     previous.Version + 1,
		Language:    previous.Language,
		Code:        extraction.Code,
		Tests:       tests,
		Explanation: extraction.Explanation,
	}, nil
}

func (g Generator) chat(ctx context.Context, operation string, system string, user string) (string, error) {
	resp, err := g.Client.Chat(ctx, pipeline.LLMRequest{SystemPrompt: system, UserPrompt: user, Model: g.Model, Temperature: g.Temperature})
	if err != nil {
		if pipeline.IsBackendError(err) {
			return "", fmt.Errorf("%s: %w", operation, err)
		}
		return "", &pipeline.BackendError{Operation: operation, Err: err}
	}
	return resp.RawText, nil
}

func extractCode(raw string) (Extraction, error) {
	if strings.TrimSpace(raw) == "" {
		return Extraction{}, &pipeline.GenerationError{Reason: blankResponseReason}
	}
	extraction := Extract(raw)
	if extraction.Code == "" {
		return Extraction{}, &pipeline.GenerationError{Reason: noCodeBlockReason}
	}
	return extraction, nil
}

func (g Generator) profileVars() prompts.Vars {
	profile := g.Profile
	if profile.Name == "" {
		profile = pipeline.PythonProfile()
	}
	return prompts.Vars{
		"language":       profile.Name,
		"code_file":      profile.CodeFile,
		"test_file":      profile.TestFile,
		"module_name":    profile.ModuleName,
		"test_framework": profile.TestFramework,
	}
}

func formatDesign(designs []pipeline.DesignArtifact) string {
	if len(designs) == 0 {
		return ""
	}
	first := designs[0]
	return fmt.Sprintf("\nReference design (PlantUML, %s):\n```plantuml\n%s\n```\n", first.Kind, first.Specification)
}

func (g Generator) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}
