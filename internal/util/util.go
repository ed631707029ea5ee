package util

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	constants "github.com/CodeAndHammer/eventdle/internal/constants"
)

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}
		LogWarn("Error checking directory existence: %v", err)
		return false
	}
	return info.IsDir()
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func FormatUptime(d time.Duration) string {
	seconds := int(d.Seconds()) % 60
	minutes := int(d.Minutes()) % 60
	hours := int(d.Hours())
	switch {
	case hours > 0:
		return fmt.Sprintf("%d hour%s, %d minute%s, %d second%s",
			hours, plural(hours),
			minutes, plural(minutes),
			seconds, plural(seconds))
	case minutes > 0:
		return fmt.Sprintf("%d minute%s, %d second%s",
			minutes, plural(minutes),
			seconds, plural(seconds))
	default:
		return fmt.Sprintf("%d second%s", seconds, plural(seconds))
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		LogWarn("Invalid duration for %s: %v, using default %v", key, err, fallback)
		return fallback
	}
	return d
}

func GetEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		LogWarn("Invalid int for %s: %v, using default %d", key, err, fallback)
		return fallback
	}
	return i
}

// GetEnvBigInt reads a non-negative base-10 integer of any size.
// ok is false when the variable is unset or unparsable.
func GetEnvBigInt(key string) (*big.Int, bool) {
	val := os.Getenv(key)
	if val == "" {
		return nil, false
	}
	n, ok := new(big.Int).SetString(val, 10)
	if !ok || n.Sign() < 0 {
		LogWarn("Invalid integer for %s, ignoring", key)
		return nil, false
	}
	return n, true
}

// SetupLogging points the global zerolog logger at w and applies level
// (debug, info, warn, ...). Unknown levels keep the current one.
func SetupLogging(w io.Writer, level string, pretty bool) {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
		zerolog.SetGlobalLevel(lvl)
	} else if level != "" {
		LogWarn("Unknown log level %q, keeping %s", level, zerolog.GlobalLevel())
	}
}

func LogInfo(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func LogWarn(format string, v ...any) {
	log.Warn().Msgf(format, v...)
}

func LogFatal(format string, v ...any) {
	log.Fatal().Msgf(format, v...)
}

// RequestID returns the request ID stored by the request ID middleware, or "".
func RequestID(ctx context.Context) string {
	reqID, _ := ctx.Value(constants.RequestIDKey).(string)
	return reqID
}

// LogInfoCtx prefixes the message with the request ID when one is present.
func LogInfoCtx(ctx context.Context, format string, v ...any) {
	if reqID := RequestID(ctx); reqID != "" {
		LogInfo("[request_id=%v] "+format, append([]any{reqID}, v...)...)
		return
	}
	LogInfo(format, v...)
}

func LogWarnCtx(ctx context.Context, format string, v ...any) {
	if reqID := RequestID(ctx); reqID != "" {
		LogWarn("[request_id=%v] "+format, append([]any{reqID}, v...)...)
		return
	}
	LogWarn(format, v...)
}
