package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// resetViper resets viper global state and sets the defaults the root
// command registers.
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	SetDefaults()
}

// writeConfigFile writes YAML content to a temp file.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// loadConfigFile merges a YAML config file into viper.
func loadConfigFile(t *testing.T, path string) {
	t.Helper()
	viper.SetConfigFile(path)
	if err := viper.MergeInConfig(); err != nil {
		t.Fatalf("failed to merge config file: %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	resetViper(t)

	cfg, err := BuildConfigFromViper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"BindAddress", cfg.BindAddress, "127.0.0.1"},
		{"Port", cfg.Port, 3080},
		{"LogLevel", cfg.LogLevel, "info"},
		{"APIServer", cfg.APIServer, ""},
		{"Upstream.Timeout", cfg.Upstream.Timeout, 30 * time.Second},
		{"Upstream.InsecureSkipVerify", cfg.Upstream.InsecureSkipVerify, false},
		{"Upstream.ForwardRequestBody", cfg.Upstream.ForwardRequestBody, true},
		{"Upstream.StripAcceptEncoding", cfg.Upstream.StripAcceptEncoding, true},
		{"Rewrite.StripSecureCookies", cfg.Rewrite.StripSecureCookies, false},
		{"Rewrite.DropHSTS", cfg.Rewrite.DropHSTS, false},
		{"Rewrite.DecodeContentEncoding", cfg.Rewrite.DecodeContentEncoding, true},
		{"Rewrite.MaxBodySize", cfg.Rewrite.MaxBodySize, int64(DefaultMaxBodySize)},
		{"Rewrite.MimeTypes", len(cfg.Rewrite.MimeTypes), len(DefaultRewriteMimeTypes)},
		{"Rewrite.Headers", len(cfg.Rewrite.Headers), 0},
		{"HostRules", len(cfg.HostRules), 0},
		{"ListenAddr", cfg.ListenAddr(), "127.0.0.1:3080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	for i, mime := range DefaultRewriteMimeTypes {
		if cfg.Rewrite.MimeTypes[i] != mime {
			t.Errorf("MimeTypes[%d] = %q, want %q", i, cfg.Rewrite.MimeTypes[i], mime)
		}
	}
}

func TestConfigFromFile(t *testing.T) {
	resetViper(t)

	yaml := `
bind-address: 0.0.0.0
port: 8080
log-level: DEBUG
api-server: 127.0.0.1:9090
api-server-secret: s3cret
upstream:
  timeout: 5s
  insecure-skip-verify: true
  forward-request-body: false
  strip-accept-encoding: false
rewrite:
  mime-types:
    - text/html
    - application/json
  headers:
    - Content-Location
    - Refresh
  strip-secure-cookies: true
  drop-hsts: true
  decode-content-encoding: false
  max-body-size: 1024
host-rules:
  - type: domain-suffix
    match-value: example.com
    action: allow
  - type: FINAL
    action: REJECT
`
	path := writeConfigFile(t, yaml)
	loadConfigFile(t, path)

	cfg, err := BuildConfigFromViper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ListenAddr() != "0.0.0.0:8080" {
		t.Errorf("ListenAddr = %v, want 0.0.0.0:8080", cfg.ListenAddr())
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.APIServer != "127.0.0.1:9090" {
		t.Errorf("APIServer = %v", cfg.APIServer)
	}
	if cfg.APIServerSecret != "s3cret" {
		t.Errorf("APIServerSecret = %v", cfg.APIServerSecret)
	}
	if cfg.Upstream.Timeout != 5*time.Second {
		t.Errorf("Upstream.Timeout = %v, want 5s", cfg.Upstream.Timeout)
	}
	if !cfg.Upstream.InsecureSkipVerify {
		t.Error("Upstream.InsecureSkipVerify should be true")
	}
	if cfg.Upstream.ForwardRequestBody {
		t.Error("Upstream.ForwardRequestBody should be false")
	}
	if cfg.Upstream.StripAcceptEncoding {
		t.Error("Upstream.StripAcceptEncoding should be false")
	}
	if len(cfg.Rewrite.MimeTypes) != 2 || cfg.Rewrite.MimeTypes[1] != "application/json" {
		t.Errorf("Rewrite.MimeTypes = %v", cfg.Rewrite.MimeTypes)
	}
	if len(cfg.Rewrite.Headers) != 2 || cfg.Rewrite.Headers[0] != "Content-Location" {
		t.Errorf("Rewrite.Headers = %v", cfg.Rewrite.Headers)
	}
	if !cfg.Rewrite.StripSecureCookies || !cfg.Rewrite.DropHSTS {
		t.Error("header policies should be enabled")
	}
	if cfg.Rewrite.DecodeContentEncoding {
		t.Error("Rewrite.DecodeContentEncoding should be false")
	}
	if cfg.Rewrite.MaxBodySize != 1024 {
		t.Errorf("Rewrite.MaxBodySize = %v, want 1024", cfg.Rewrite.MaxBodySize)
	}
	if len(cfg.HostRules) != 2 {
		t.Fatalf("HostRules count = %d, want 2", len(cfg.HostRules))
	}
	if cfg.HostRules[0].Type != "DOMAIN-SUFFIX" || cfg.HostRules[0].Action != "ALLOW" {
		t.Errorf("HostRules[0] = %+v", cfg.HostRules[0])
	}
}

func TestEnvOverrides(t *testing.T) {
	resetViper(t)
	viper.SetEnvPrefix("INSECURE_PROXY_TEST")
	viper.AutomaticEnv()
	t.Setenv("INSECURE_PROXY_TEST_PORT", "4040")
	_ = viper.BindEnv("rewrite.mime-types", "INSECURE_PROXY_TEST_MIMES")
	t.Setenv("INSECURE_PROXY_TEST_MIMES", "text/html, text/plain")
	_ = viper.BindEnv("upstream.timeout", "INSECURE_PROXY_TEST_TIMEOUT")
	t.Setenv("INSECURE_PROXY_TEST_TIMEOUT", "750ms")

	cfg, err := BuildConfigFromViper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 4040 {
		t.Errorf("Port = %d, want 4040", cfg.Port)
	}
	if len(cfg.Rewrite.MimeTypes) != 2 || cfg.Rewrite.MimeTypes[1] != "text/plain" {
		t.Errorf("Rewrite.MimeTypes = %q", cfg.Rewrite.MimeTypes)
	}
	if cfg.Upstream.Timeout != 750*time.Millisecond {
		t.Errorf("Upstream.Timeout = %v", cfg.Upstream.Timeout)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"port out of range", "port: 70000\n"},
		{"unknown log level", "log-level: chatty\n"},
		{"bad api server", "api-server: not-an-address\n"},
		{"negative body size", "rewrite:\n  max-body-size: -1\n"},
		{"unknown rule type", "host-rules:\n  - type: URL\n    match-value: x\n    action: ALLOW\n"},
		{"missing match value", "host-rules:\n  - type: DOMAIN\n    action: ALLOW\n"},
		{"unknown action", "host-rules:\n  - type: FINAL\n    action: DROP\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			loadConfigFile(t, writeConfigFile(t, tt.yaml))
			if _, err := BuildConfigFromViper(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestLogValue(t *testing.T) {
	resetViper(t)

	cfg, err := BuildConfigFromViper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	val := cfg.LogValue()
	if val.Kind() != slog.KindGroup {
		t.Errorf("LogValue().Kind() = %v, want Group", val.Kind())
	}
}

func TestGenerateTemplateConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(wd) }()

	want, err := GenerateTemplateConfig(true)
	if err != nil {
		t.Fatalf("GenerateTemplateConfig: %v", err)
	}

	resetViper(t)
	loadConfigFile(t, filepath.Join(dir, TemplateConfigFile))
	got, err := BuildConfigFromViper()
	if err != nil {
		t.Fatalf("template config does not validate: %v", err)
	}
	if got.Upstream.Timeout != want.Upstream.Timeout {
		t.Errorf("Upstream.Timeout = %v, want %v", got.Upstream.Timeout, want.Upstream.Timeout)
	}
	if len(got.HostRules) != len(want.HostRules) {
		t.Errorf("HostRules = %d, want %d", len(got.HostRules), len(want.HostRules))
	}
	if len(got.Rewrite.Headers) != 1 || got.Rewrite.Headers[0] != "Content-Location" {
		t.Errorf("Rewrite.Headers = %v", got.Rewrite.Headers)
	}
}
