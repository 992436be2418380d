package match

import (
	"log/slog"

	"github.com/the-insecure-proxy/insecure-proxy/internal/common"
	"github.com/the-insecure-proxy/insecure-proxy/internal/config"
)

type final struct {
	action common.Action
}

func (f *final) Type() common.RuleType {
	return common.RuleTypeFinal
}

func (f *final) Match(meta *common.Metadata) bool {
	return true
}

func (f *final) Action() common.Action {
	return f.action
}

func (f *final) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", string(f.Type())),
		slog.String("action", string(f.action)),
	)
}

func NewFinal(rule *config.Rule) *final {
	return &final{
		action: common.Action(rule.Action),
	}
}
