package match

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/the-insecure-proxy/insecure-proxy/internal/common"
	"github.com/the-insecure-proxy/insecure-proxy/internal/config"
)

const regexTimeout = 50 * time.Millisecond

type DomainRegex struct {
	action common.Action
	regex  *regexp2.Regexp
}

func (d *DomainRegex) Type() common.RuleType {
	return common.RuleTypeDomainRegex
}

func (d *DomainRegex) Match(metadata *common.Metadata) bool {
	matched, err := d.regex.MatchString(metadata.Host())
	if err != nil {
		slog.Warn("d.regex.MatchString", slog.String("regex", d.regex.String()), slog.Any("error", err))
		return false
	}
	return matched
}

func (d *DomainRegex) Action() common.Action {
	return d.action
}

func (d *DomainRegex) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", string(d.Type())),
		slog.String("regex", d.regex.String()),
		slog.String("action", string(d.action)),
	)
}

func NewDomainRegex(rule *config.Rule) (*DomainRegex, error) {
	regex, err := regexp2.Compile(rule.MatchValue, regexp2.IgnoreCase)
	if err != nil {
		return nil, fmt.Errorf("regexp2.Compile %q: %w", rule.MatchValue, err)
	}
	regex.MatchTimeout = regexTimeout
	return &DomainRegex{
		action: common.Action(rule.Action),
		regex:  regex,
	}, nil
}
