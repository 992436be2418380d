package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/the-insecure-proxy/insecure-proxy/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel maps a config log level onto slog. Unknown values fall back to
// info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler builds the text handler every logger in the process shares.
func NewHandler(w io.Writer, level string) slog.Handler {
	loc := LoadLocalLocation()
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				t := a.Value.Time().In(loc)
				return slog.String(slog.TimeKey, t.Format("2006-01-02 15:04:05"))
			}
			return a
		},
	}
	return slog.NewTextHandler(w, opts)
}

// SetLogConf installs the default logger. Records go to stdout, to a
// rotating file and to lb when it is non-nil. An empty file selects the
// platform log path.
func SetLogConf(level, file string, lb *Broadcaster) {
	if file == "" {
		file = GetLogFilePath()
	}
	writers := []io.Writer{
		os.Stdout,
		&lumberjack.Logger{
			Filename:   file,
			MaxSize:    5, // megabytes
			MaxBackups: 5,
			MaxAge:     7, // days
			LocalTime:  true,
			Compress:   true,
		},
	}
	if lb != nil {
		writers = append(writers, lb)
	}
	slog.SetDefault(slog.New(NewHandler(io.MultiWriter(writers...), level)))
}

func LogHeader(version string, cfg *config.Config) {
	slog.Info("insecure-proxy started", "version", version, "", cfg)
	slog.Info("host info", GetOSInfo()...)
}

// LoadLocalLocation tries to detect and load the system local timezone from
// `/etc/localtime` or `/etc/TZ`. Compatible with OpenWrt and normal Linux.
func LoadLocalLocation() *time.Location {
	if _, err := os.Stat("/etc/localtime"); err == nil {
		if loc, _ := time.LoadLocation("Local"); loc != nil {
			return loc
		}
	}
	if data, err := os.ReadFile("/etc/TZ"); err == nil {
		tz := strings.TrimSpace(string(data))
		switch {
		case strings.HasPrefix(tz, "CST-8"):
			return time.FixedZone("CST", 8*3600)
		case strings.HasPrefix(tz, "UTC"):
			return time.UTC
		}
	}
	return time.UTC
}
