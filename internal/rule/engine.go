package rule

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/the-insecure-proxy/insecure-proxy/internal/common"
	"github.com/the-insecure-proxy/insecure-proxy/internal/config"
	"github.com/the-insecure-proxy/insecure-proxy/internal/rule/match"
)

// Engine evaluates host rules in order. The first match decides; a request
// that matches nothing is allowed.
type Engine struct {
	rules []common.Rule
}

func NewEngine(ruleSet []config.Rule) (*Engine, error) {
	validate := validator.New()
	rules := make([]common.Rule, 0, len(ruleSet))

	for i := range ruleSet {
		cfg := &ruleSet[i]
		if err := validate.Struct(cfg); err != nil {
			return nil, fmt.Errorf("host rule %d: %w", i, err)
		}

		var r common.Rule
		switch common.RuleType(cfg.Type) {
		case common.RuleTypeDomain:
			r = match.NewDomain(cfg)
		case common.RuleTypeDomainSuffix:
			r = match.NewDomainSuffix(cfg)
		case common.RuleTypeDomainKeyword:
			r = match.NewDomainKeyword(cfg)
		case common.RuleTypeDomainRegex:
			dr, err := match.NewDomainRegex(cfg)
			if err != nil {
				return nil, fmt.Errorf("host rule %d: %w", i, err)
			}
			r = dr
		case common.RuleTypeFinal:
			r = match.NewFinal(cfg)
		default:
			return nil, fmt.Errorf("host rule %d: unsupported type %q", i, cfg.Type)
		}
		rules = append(rules, r)
	}

	return &Engine{rules: rules}, nil
}

// Match returns the first rule matching metadata, or nil.
func (e *Engine) Match(metadata *common.Metadata) common.Rule {
	if e == nil {
		return nil
	}
	for _, rule := range e.rules {
		if rule.Match(metadata) {
			slog.Debug("Rule matched", slog.Any("rule", rule), slog.Any("request", metadata))
			return rule
		}
	}
	return nil
}

// Decide returns the action for metadata and the rule that produced it.
func (e *Engine) Decide(metadata *common.Metadata) (common.Action, common.Rule) {
	rule := e.Match(metadata)
	if rule == nil {
		return common.ActionAllow, nil
	}
	return rule.Action(), rule
}

func (e *Engine) Len() int {
	if e == nil {
		return 0
	}
	return len(e.rules)
}
