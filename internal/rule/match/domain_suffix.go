package match

import (
	"log/slog"
	"strings"

	"github.com/the-insecure-proxy/insecure-proxy/internal/common"
	"github.com/the-insecure-proxy/insecure-proxy/internal/config"
)

// DomainSuffix matches the domain itself and every subdomain of it, on
// label boundaries.
type DomainSuffix struct {
	action       common.Action
	domainSuffix string
}

func (d *DomainSuffix) Type() common.RuleType {
	return common.RuleTypeDomainSuffix
}

func (d *DomainSuffix) Match(metadata *common.Metadata) bool {
	host := strings.ToLower(metadata.Host())
	return host == d.domainSuffix || strings.HasSuffix(host, "."+d.domainSuffix)
}

func (d *DomainSuffix) Action() common.Action {
	return d.action
}

func (d *DomainSuffix) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", string(d.Type())),
		slog.String("domain_suffix", d.domainSuffix),
		slog.String("action", string(d.action)),
	)
}

func NewDomainSuffix(rule *config.Rule) *DomainSuffix {
	suffix := strings.ToLower(strings.Trim(rule.MatchValue, "."))
	return &DomainSuffix{
		action:       common.Action(rule.Action),
		domainSuffix: suffix,
	}
}
