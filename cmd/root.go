package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/the-insecure-proxy/insecure-proxy/internal/api"
	"github.com/the-insecure-proxy/insecure-proxy/internal/config"
	"github.com/the-insecure-proxy/insecure-proxy/internal/log"
	"github.com/the-insecure-proxy/insecure-proxy/internal/proxy"
	"github.com/the-insecure-proxy/insecure-proxy/internal/rule"
	"github.com/the-insecure-proxy/insecure-proxy/internal/server"
	"github.com/the-insecure-proxy/insecure-proxy/internal/statistics"
)

const statsFileName = "stats"

var (
	AppVersion    = "Development"
	shutdownChain []func() error
)

var rootCmd = &cobra.Command{
	Use:   "insecure-proxy",
	Short: "insecure-proxy serves HTTPS sites to plaintext clients",
	Long: "insecure-proxy is a reverse proxy that fetches every request from the origin named by its Host header over HTTPS " +
		"and rewrites https:// links back to http:// in response headers and bodies.",
	SilenceUsage: true,
	RunE:         runRoot,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Short flags
	rootCmd.Flags().StringP("config", "c", "", "Config file path")
	rootCmd.Flags().StringP("bind", "b", "", "Bind address")
	rootCmd.Flags().IntP("port", "p", 0, "Port")
	rootCmd.Flags().StringP("log-level", "l", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().BoolP("version", "v", false, "Show version")
	rootCmd.Flags().BoolP("generate-config", "g", false, "Generate template config file")

	// Long flags
	rootCmd.Flags().String("log-file", "", "Log file path")
	rootCmd.Flags().String("api-server", "", "Admin API listen address, empty to disable")
	rootCmd.Flags().String("api-server-secret", "", "Admin API secret")
	rootCmd.Flags().String("stats-file", "", "Statistics dump file path")
	rootCmd.Flags().Duration("upstream-timeout", 0, "Origin request timeout")
	rootCmd.Flags().Bool("insecure-skip-verify", false, "Do not verify origin certificates")
	rootCmd.Flags().Bool("forward-request-body", true, "Forward request bodies to the origin")
	rootCmd.Flags().Bool("strip-accept-encoding", true, "Remove Accept-Encoding from forwarded requests")
	rootCmd.Flags().StringSlice("mime-types", nil, "Content types whose bodies are rewritten")
	rootCmd.Flags().StringSlice("rewrite-headers", nil, "Extra response headers rewritten like Location")
	rootCmd.Flags().Bool("strip-secure-cookies", false, "Remove the Secure attribute from Set-Cookie")
	rootCmd.Flags().Bool("drop-hsts", false, "Remove Strict-Transport-Security")
	rootCmd.Flags().Bool("decode-content-encoding", true, "Decode compressed bodies before rewriting")
	rootCmd.Flags().Int64("max-body-size", 0, "Largest origin body collected, in bytes")

	// Bind all flags to viper using consistent key names
	_ = viper.BindPFlag("config", rootCmd.Flags().Lookup("config"))
	_ = viper.BindPFlag("bind-address", rootCmd.Flags().Lookup("bind"))
	_ = viper.BindPFlag("port", rootCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("log-level", rootCmd.Flags().Lookup("log-level"))
	_ = viper.BindPFlag("log-file", rootCmd.Flags().Lookup("log-file"))
	_ = viper.BindPFlag("api-server", rootCmd.Flags().Lookup("api-server"))
	_ = viper.BindPFlag("api-server-secret", rootCmd.Flags().Lookup("api-server-secret"))
	_ = viper.BindPFlag("stats-file", rootCmd.Flags().Lookup("stats-file"))
	_ = viper.BindPFlag("upstream.timeout", rootCmd.Flags().Lookup("upstream-timeout"))
	_ = viper.BindPFlag("upstream.insecure-skip-verify", rootCmd.Flags().Lookup("insecure-skip-verify"))
	_ = viper.BindPFlag("upstream.forward-request-body", rootCmd.Flags().Lookup("forward-request-body"))
	_ = viper.BindPFlag("upstream.strip-accept-encoding", rootCmd.Flags().Lookup("strip-accept-encoding"))
	_ = viper.BindPFlag("rewrite.mime-types", rootCmd.Flags().Lookup("mime-types"))
	_ = viper.BindPFlag("rewrite.headers", rootCmd.Flags().Lookup("rewrite-headers"))
	_ = viper.BindPFlag("rewrite.strip-secure-cookies", rootCmd.Flags().Lookup("strip-secure-cookies"))
	_ = viper.BindPFlag("rewrite.drop-hsts", rootCmd.Flags().Lookup("drop-hsts"))
	_ = viper.BindPFlag("rewrite.decode-content-encoding", rootCmd.Flags().Lookup("decode-content-encoding"))
	_ = viper.BindPFlag("rewrite.max-body-size", rootCmd.Flags().Lookup("max-body-size"))

	// Bind environment variables
	viper.SetEnvPrefix("INSECURE_PROXY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// PORT is what most hosting platforms set.
	_ = viper.BindEnv("port", "INSECURE_PROXY_PORT", "PORT")

	rootCmd.AddCommand(rewriteCmd)
}

func initConfig() {
	config.SetDefaults()

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.MergeInConfig(); err != nil {
			slog.Error("Failed to read config file", slog.Any("error", err))
			os.Exit(1)
		}
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	// Handle -v / --version
	showVer, _ := cmd.Flags().GetBool("version")
	if showVer {
		fmt.Printf("insecure-proxy version %s\n", AppVersion)
		return nil
	}

	// Handle -g / --generate-config
	genConfig, _ := cmd.Flags().GetBool("generate-config")
	if genConfig {
		_, err := config.GenerateTemplateConfig(true)
		if err != nil {
			return fmt.Errorf("failed to generate template config: %w", err)
		}
		fmt.Printf("Template config file '%s' generated successfully.\n", config.TemplateConfigFile)
		return nil
	}

	cfg, err := config.BuildConfigFromViper()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	lb := log.NewBroadcaster()
	log.SetLogConf(cfg.LogLevel, cfg.LogFile, lb)
	log.LogHeader(AppVersion, cfg)

	rules, err := rule.NewEngine(cfg.HostRules)
	if err != nil {
		slog.Error("rule.NewEngine", slog.Any("error", err))
		return err
	}

	statsFile := cfg.StatsFile
	if statsFile == "" {
		statsFile = log.GetStatsFilePath(statsFileName)
	}
	recorder := statistics.NewRecorder(statsFile)
	ctx, stopRecorder := context.WithCancel(context.Background())
	recorder.Start(ctx)
	addShutdown("recorder.Stop", func() error {
		stopRecorder()
		return nil
	})

	p := proxy.New(cfg, proxy.NewClient(cfg.Upstream), rules, recorder)
	srv := server.New(cfg, p)
	addShutdown("srv.Close", srv.Close)
	if err := srv.Start(); err != nil {
		slog.Error("srv.Start", slog.Any("error", err))
		shutdown()
		return err
	}

	if cfg.APIServer != "" {
		apiSrv := api.New(cfg.APIServer, AppVersion, cfg, recorder, lb)
		addShutdown("apiSrv.Close", apiSrv.Close)
		if err := apiSrv.Start(); err != nil {
			slog.Error("apiSrv.Start", slog.Any("error", err))
			shutdown()
			return err
		}
	}

	cleanup := make(chan os.Signal, 1)
	signal.Notify(cleanup, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGTERM)
	for {
		s := <-cleanup
		slog.Info("Received signal", slog.String("signal", s.String()))
		switch s {
		case syscall.SIGQUIT, syscall.SIGINT, syscall.SIGTERM:
			shutdown()
			return nil
		case syscall.SIGHUP:
		default:
			return nil
		}
	}
}

func addShutdown(name string, fn func() error) {
	shutdownChain = append(shutdownChain, func() error {
		if err := fn(); err != nil {
			slog.Error(name, slog.Any("error", err))
			return err
		}
		return nil
	})
}

func shutdown() {
	for i := len(shutdownChain) - 1; i >= 0; i-- {
		_ = shutdownChain[i]()
	}
	shutdownChain = nil
	slog.Info("insecure-proxy exit")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
