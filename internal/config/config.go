package config

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// DefaultRewriteMimeTypes are the content types whose bodies get their
// https:// links downgraded.
var DefaultRewriteMimeTypes = []string{
	"text/html",
	"image/svg",
	"application/javascript",
	"application/rss+xml",
	"application/xhtml+xml",
	"text/css",
	"text/javascript",
}

const (
	DefaultBindAddress = "127.0.0.1"
	DefaultPort        = 3080
	DefaultMaxBodySize = 64 << 20
	DefaultTimeout     = 30 * time.Second
)

type Config struct {
	BindAddress string `yaml:"bind-address" json:"bind_address" validate:"required"`
	Port        int    `yaml:"port" json:"port" validate:"min=0,max=65535"`

	LogLevel string `yaml:"log-level" json:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFile  string `yaml:"log-file" json:"log_file"`

	APIServer       string `yaml:"api-server" json:"api_server" validate:"omitempty,hostname_port"`
	APIServerSecret string `yaml:"api-server-secret" json:"-"`

	StatsFile string `yaml:"stats-file" json:"stats_file"`

	Upstream UpstreamConfig `yaml:"upstream" json:"upstream"`
	Rewrite  RewriteConfig  `yaml:"rewrite" json:"rewrite"`

	HostRules []Rule `yaml:"host-rules" json:"host_rules" validate:"dive"`
}

type UpstreamConfig struct {
	Timeout             time.Duration `yaml:"timeout" json:"timeout" validate:"min=0"`
	InsecureSkipVerify  bool          `yaml:"insecure-skip-verify" json:"insecure_skip_verify"`
	ForwardRequestBody  bool          `yaml:"forward-request-body" json:"forward_request_body"`
	StripAcceptEncoding bool          `yaml:"strip-accept-encoding" json:"strip_accept_encoding"`
}

type RewriteConfig struct {
	MimeTypes             []string `yaml:"mime-types" json:"mime_types"`
	Headers               []string `yaml:"headers" json:"headers"`
	StripSecureCookies    bool     `yaml:"strip-secure-cookies" json:"strip_secure_cookies"`
	DropHSTS              bool     `yaml:"drop-hsts" json:"drop_hsts"`
	DecodeContentEncoding bool     `yaml:"decode-content-encoding" json:"decode_content_encoding"`
	MaxBodySize           int64    `yaml:"max-body-size" json:"max_body_size" validate:"min=0"`
}

// Rule is a host access rule as written in the config file.
type Rule struct {
	Type       string `yaml:"type" json:"type" validate:"required,oneof=DOMAIN DOMAIN-SUFFIX DOMAIN-KEYWORD DOMAIN-REGEX FINAL"`
	MatchValue string `yaml:"match-value,omitempty" json:"match_value,omitempty" validate:"required_unless=Type FINAL"`
	Action     string `yaml:"action" json:"action" validate:"required,oneof=ALLOW REJECT"`
}

// SetDefaults registers every default with viper.
func SetDefaults() {
	viper.SetDefault("bind-address", DefaultBindAddress)
	viper.SetDefault("port", DefaultPort)
	viper.SetDefault("log-level", "info")
	viper.SetDefault("log-file", "")
	viper.SetDefault("api-server", "")
	viper.SetDefault("api-server-secret", "")
	viper.SetDefault("stats-file", "")
	viper.SetDefault("upstream.timeout", DefaultTimeout)
	viper.SetDefault("upstream.insecure-skip-verify", false)
	viper.SetDefault("upstream.forward-request-body", true)
	viper.SetDefault("upstream.strip-accept-encoding", true)
	viper.SetDefault("rewrite.mime-types", DefaultRewriteMimeTypes)
	viper.SetDefault("rewrite.headers", []string{})
	viper.SetDefault("rewrite.strip-secure-cookies", false)
	viper.SetDefault("rewrite.drop-hsts", false)
	viper.SetDefault("rewrite.decode-content-encoding", true)
	viper.SetDefault("rewrite.max-body-size", DefaultMaxBodySize)
}

// BuildConfigFromViper decodes and validates the merged flag, env and file
// settings.
func BuildConfigFromViper() (*Config, error) {
	var cfg Config
	err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("viper.Unmarshal: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Rewrite.MimeTypes = trimAll(c.Rewrite.MimeTypes)
	c.Rewrite.Headers = trimAll(c.Rewrite.Headers)
	for i := range c.HostRules {
		c.HostRules[i].Type = strings.ToUpper(strings.TrimSpace(c.HostRules[i].Type))
		c.HostRules[i].Action = strings.ToUpper(strings.TrimSpace(c.HostRules[i].Action))
	}
}

func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := net.ResolveTCPAddr("tcp", c.ListenAddr()); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.ListenAddr(), err)
	}
	return nil
}

func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.Port))
}

func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("Log Level", c.LogLevel),
		slog.String("Listen Address", c.ListenAddr()),
		slog.String("API Server", c.APIServer),
		slog.Duration("Upstream Timeout", c.Upstream.Timeout),
		slog.Bool("Insecure Skip Verify", c.Upstream.InsecureSkipVerify),
		slog.Bool("Forward Request Body", c.Upstream.ForwardRequestBody),
		slog.Bool("Strip Accept-Encoding", c.Upstream.StripAcceptEncoding),
		slog.String("Rewrite MIME Types", strings.Join(c.Rewrite.MimeTypes, ",")),
		slog.String("Rewrite Headers", strings.Join(c.Rewrite.Headers, ",")),
		slog.Bool("Strip Secure Cookies", c.Rewrite.StripSecureCookies),
		slog.Bool("Drop HSTS", c.Rewrite.DropHSTS),
		slog.Bool("Decode Content-Encoding", c.Rewrite.DecodeContentEncoding),
		slog.Int64("Max Body Size", c.Rewrite.MaxBodySize),
		slog.Int("Host Rules", len(c.HostRules)),
	)
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
