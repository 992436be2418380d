package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

const TemplateConfigFile = "config.yaml"

func GenerateTemplateConfig(writeToFile bool) (Config, error) {
	cfg := Config{
		BindAddress: DefaultBindAddress,
		Port:        DefaultPort,

		LogLevel: "info",

		Upstream: UpstreamConfig{
			Timeout:             DefaultTimeout,
			InsecureSkipVerify:  false,
			ForwardRequestBody:  true,
			StripAcceptEncoding: true,
		},

		Rewrite: RewriteConfig{
			MimeTypes:             append([]string(nil), DefaultRewriteMimeTypes...),
			Headers:               []string{"Content-Location"},
			StripSecureCookies:    false,
			DropHSTS:              false,
			DecodeContentEncoding: true,
			MaxBodySize:           DefaultMaxBodySize,
		},

		HostRules: []Rule{
			{
				Type:       "DOMAIN-SUFFIX",
				MatchValue: "example.com",
				Action:     "ALLOW",
			},
			{
				Type:   "FINAL",
				Action: "ALLOW",
			},
		},
	}

	if writeToFile {
		data, err := yaml.Marshal(&cfg)
		if err != nil {
			return Config{}, fmt.Errorf("failed to marshal template config to YAML: %w", err)
		}
		if err := os.WriteFile(TemplateConfigFile, data, 0644); err != nil {
			return Config{}, fmt.Errorf("failed to write template config to file: %w", err)
		}
	}
	return cfg, nil
}
