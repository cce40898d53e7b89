// Package sigma evaluates Sigma detection rules against incident events.
package sigma

import (
	"context"
	"embed"
	"io/fs"
	"path/filepath"

	sigmalib "github.com/bradleyjkemp/sigma-go"
	"github.com/bradleyjkemp/sigma-go/evaluator"

	"github.com/vigilab/incident-triage/internal/model"
)

//go:embed rules
var embeddedRules embed.FS

// Engine evaluates Sigma rules against incident events.
type Engine struct {
	rules []evaluator.RuleEvaluator
}

// NewDefault creates an Engine loaded with the built-in embedded Sigma rules.
func NewDefault() (*Engine, error) {
	sub, err := fs.Sub(embeddedRules, "rules")
	if err != nil {
		return nil, err
	}
	return New(sub)
}

// New creates an Engine by loading Sigma rules from the given FS.
// All .yml/.yaml files are parsed as Sigma rules.
func New(rulesFS fs.FS) (*Engine, error) {
	var rules []evaluator.RuleEvaluator

	err := fs.WalkDir(rulesFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := filepath.Ext(path)
		if ext != ".yml" && ext != ".yaml" {
			return nil
		}
		data, err := fs.ReadFile(rulesFS, path)
		if err != nil {
			return err
		}
		rule, err := sigmalib.ParseRule(data)
		if err != nil {
			return err
		}
		rules = append(rules, *evaluator.ForRule(rule))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Engine{rules: rules}, nil
}

// MatchInput evaluates all rules against one incident. The incident is
// presented to the rules as a single event with message, source, and
// severity fields.
func (e *Engine) MatchInput(ctx context.Context, in model.Input) []Match {
	event := map[string]interface{}{
		"message":  in.LogText,
		"source":   in.SystemContext,
		"severity": string(in.DeclaredSeverity),
	}
	return e.MatchEvent(ctx, event)
}

// MatchEvent evaluates all rules against one event map. Rules carrying a
// logsource.category are scoped to events whose source field matches it.
func (e *Engine) MatchEvent(ctx context.Context, event map[string]interface{}) []Match {
	var matches []Match
	for _, ev := range e.rules {
		cat := ev.Rule.Logsource.Category
		if cat != "" {
			source, _ := event["source"].(string)
			if cat != source {
				continue
			}
		}

		res, err := ev.Matches(ctx, event)
		if err != nil || !res.Match {
			continue
		}
		matches = append(matches, Match{
			RuleTitle: ev.Rule.Title,
			RuleID:    ev.Rule.ID,
			Level:     ev.Rule.Level,
			Event:     event,
		})
	}
	return matches
}
