//go:build unix

package log

import (
	"bytes"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

func GetOSInfo() []any {
	attrs := baseOSInfo()

	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return append(attrs, slog.String("uname_error", err.Error()))
	}
	return append(attrs,
		slog.String("sysname", cstring(uname.Sysname[:])),
		slog.String("release", cstring(uname.Release[:])),
		slog.String("machine", cstring(uname.Machine[:])),
	)
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(bytes.TrimSpace(b))
}

func baseOSInfo() []any {
	attrs := []any{
		slog.String("GOOS", runtime.GOOS),
		slog.String("GOARCH", runtime.GOARCH),
		slog.String("Go Version", runtime.Version()),
	}
	if hostname, err := os.Hostname(); err == nil {
		attrs = append(attrs, slog.String("hostname", hostname))
	}
	return attrs
}
