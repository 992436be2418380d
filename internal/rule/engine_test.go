package rule

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-insecure-proxy/insecure-proxy/internal/common"
	"github.com/the-insecure-proxy/insecure-proxy/internal/config"
)

func metaFor(host string) *common.Metadata {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = host
	return common.NewMetadata(req)
}

func TestEngineDecide(t *testing.T) {
	engine, err := NewEngine([]config.Rule{
		{Type: "DOMAIN", MatchValue: "blocked.example.com", Action: "REJECT"},
		{Type: "DOMAIN-SUFFIX", MatchValue: ".internal", Action: "REJECT"},
		{Type: "DOMAIN-KEYWORD", MatchValue: "Tracker", Action: "REJECT"},
		{Type: "DOMAIN-REGEX", MatchValue: `^ads\d+\.`, Action: "REJECT"},
		{Type: "DOMAIN-SUFFIX", MatchValue: "example.com", Action: "ALLOW"},
		{Type: "FINAL", Action: "REJECT"},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, engine.Len())

	tests := []struct {
		host     string
		want     common.Action
		ruleType common.RuleType
	}{
		{"blocked.example.com", common.ActionReject, common.RuleTypeDomain},
		{"BLOCKED.example.com:443", common.ActionReject, common.RuleTypeDomain},
		{"db.internal", common.ActionReject, common.RuleTypeDomainSuffix},
		{"internal", common.ActionReject, common.RuleTypeDomainSuffix},
		{"mytracker.net", common.ActionReject, common.RuleTypeDomainKeyword},
		{"ADS42.cdn.net", common.ActionReject, common.RuleTypeDomainRegex},
		{"www.example.com", common.ActionAllow, common.RuleTypeDomainSuffix},
		{"example.com", common.ActionAllow, common.RuleTypeDomainSuffix},
		{"notexample.com", common.ActionReject, common.RuleTypeFinal},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			action, rule := engine.Decide(metaFor(tt.host))
			assert.Equal(t, tt.want, action)
			require.NotNil(t, rule)
			assert.Equal(t, tt.ruleType, rule.Type())
		})
	}
}

func TestEngineDefaultAllow(t *testing.T) {
	engine, err := NewEngine(nil)
	require.NoError(t, err)

	action, rule := engine.Decide(metaFor("example.com"))
	assert.Equal(t, common.ActionAllow, action)
	assert.Nil(t, rule)

	var nilEngine *Engine
	action, _ = nilEngine.Decide(metaFor("example.com"))
	assert.Equal(t, common.ActionAllow, action)
	assert.Zero(t, nilEngine.Len())
}

func TestNewEngineErrors(t *testing.T) {
	tests := []struct {
		name string
		rule config.Rule
	}{
		{"bad regex", config.Rule{Type: "DOMAIN-REGEX", MatchValue: "(", Action: "REJECT"}},
		{"unknown type", config.Rule{Type: "IP-CIDR", MatchValue: "10.0.0.0/8", Action: "REJECT"}},
		{"missing value", config.Rule{Type: "DOMAIN", Action: "ALLOW"}},
		{"unknown action", config.Rule{Type: "FINAL", Action: "DROP"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine([]config.Rule{tt.rule})
			assert.Error(t, err)
		})
	}
}
