package match

import (
	"log/slog"
	"strings"

	"github.com/the-insecure-proxy/insecure-proxy/internal/common"
	"github.com/the-insecure-proxy/insecure-proxy/internal/config"
)

type Domain struct {
	action common.Action
	domain string
}

func (d *Domain) Type() common.RuleType {
	return common.RuleTypeDomain
}

func (d *Domain) Match(metadata *common.Metadata) bool {
	return strings.EqualFold(metadata.Host(), d.domain)
}

func (d *Domain) Action() common.Action {
	return d.action
}

func (d *Domain) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", string(d.Type())),
		slog.String("domain", d.domain),
		slog.String("action", string(d.action)),
	)
}

func NewDomain(rule *config.Rule) *Domain {
	return &Domain{
		action: common.Action(rule.Action),
		domain: strings.TrimSuffix(rule.MatchValue, "."),
	}
}
