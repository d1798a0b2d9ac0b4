// Package design produces best-effort PlantUML design artifacts for a
// refined requirement.
package design

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/clarify-verify/internal/markdown"
	"github.com/temirov/clarify-verify/internal/pipeline"
	"github.com/temirov/clarify-verify/internal/prompts"
)

const (
	startMarker        = "@startuml"
	endMarker          = "@enduml"
	notApplicable      = "NOT APPLICABLE"
	defaultDescription = "Diagram generated automatically."
)

var templateByKind = map[string]string{
	pipeline.DesignKindSequence: prompts.SequenceDiagram,
	pipeline.DesignKindClass:    prompts.ClassDiagram,
}

type Elaborator struct {
	Client  pipeline.LLMClient
	Prompts prompts.Set
	Kinds   []string
	Model   string
	Logger  *zap.Logger
}

// Elaborate returns one artifact per kind that produced a diagram. Failures
// are logged and never returned.
func (e Elaborator) Elaborate(ctx context.Context, refined string) []pipeline.DesignArtifact {
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	kinds := e.Kinds
	if len(kinds) == 0 {
		kinds = []string{pipeline.DesignKindSequence}
	}
	var artifacts []pipeline.DesignArtifact
	for _, kind := range kinds {
		templateName, known := templateByKind[kind]
		if !known {
			logger.Warn("unknown design kind", zap.String("kind", kind))
			continue
		}
		system, user, err := e.Prompts.Render(templateName, prompts.Vars{"requirement": refined})
		if err != nil {
			logger.Warn("design prompt failed", zap.String("kind", kind), zap.Error(err))
			continue
		}
		resp, err := e.Client.Chat(ctx, pipeline.LLMRequest{SystemPrompt: system, UserPrompt: user, Model: e.Model})
		if err != nil {
			logger.Warn("design elaboration failed", zap.String("kind", kind), zap.Error(err))
			continue
		}
		artifact, ok := ParseDiagram(kind, resp.RawText)
		if !ok {
			logger.Info("no design artifact produced", zap.String("kind", kind))
			continue
		}
		artifact.Requirement = refined
		artifacts = append(artifacts, artifact)
	}
	return artifacts
}

// ParseDiagram extracts the PlantUML source and its description. It reports
// false for empty output and for a class diagram declared not applicable.
func ParseDiagram(kind string, raw string) (pipeline.DesignArtifact, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return pipeline.DesignArtifact{}, false
	}
	if kind == pipeline.DesignKindClass && strings.Contains(strings.ToUpper(text), notApplicable) && !strings.Contains(text, startMarker) {
		return pipeline.DesignArtifact{}, false
	}

	var specification, rest string
	if start := strings.Index(text, startMarker); start >= 0 {
		if end := strings.Index(text[start:], endMarker); end >= 0 {
			stop := start + end + len(endMarker)
			specification = text[start:stop]
			rest = text[stop:]
		} else {
			specification = text[start:] + "\n" + endMarker
		}
	} else if blocks := markdown.FencedBlocks(text); len(blocks) > 0 {
		specification = strings.TrimSpace(blocks[0].Body)
		rest = markdown.Outside(text)
	} else {
		specification = text
	}
	specification = strings.TrimSpace(specification)
	if specification == "" {
		return pipeline.DesignArtifact{}, false
	}

	description := markdown.StripFences(rest)
	if description == "" {
		description = defaultDescription
	}
	return pipeline.DesignArtifact{Kind: kind, Specification: specification, Description: description}, true
}
