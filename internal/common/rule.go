package common

type RuleType string

const (
	RuleTypeDomain        RuleType = "DOMAIN"
	RuleTypeDomainSuffix  RuleType = "DOMAIN-SUFFIX"
	RuleTypeDomainKeyword RuleType = "DOMAIN-KEYWORD"
	RuleTypeDomainRegex   RuleType = "DOMAIN-REGEX"
	RuleTypeFinal         RuleType = "FINAL"
)

// Rule decides whether a request's host may be proxied.
type Rule interface {
	Type() RuleType
	Match(metadata *Metadata) bool
	Action() Action
}
