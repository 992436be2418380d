package match

import (
	"log/slog"
	"strings"

	"github.com/the-insecure-proxy/insecure-proxy/internal/common"
	"github.com/the-insecure-proxy/insecure-proxy/internal/config"
)

type DomainKeyword struct {
	action        common.Action
	domainKeyword string
}

func (d *DomainKeyword) Type() common.RuleType {
	return common.RuleTypeDomainKeyword
}

func (d *DomainKeyword) Match(metadata *common.Metadata) bool {
	return strings.Contains(strings.ToLower(metadata.Host()), d.domainKeyword)
}

func (d *DomainKeyword) Action() common.Action {
	return d.action
}

func (d *DomainKeyword) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", string(d.Type())),
		slog.String("domain_keyword", d.domainKeyword),
		slog.String("action", string(d.action)),
	)
}

func NewDomainKeyword(rule *config.Rule) *DomainKeyword {
	return &DomainKeyword{
		action:        common.Action(rule.Action),
		domainKeyword: strings.ToLower(rule.MatchValue),
	}
}
