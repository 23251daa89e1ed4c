package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvFileEnvVar      = "SCREENSHOT_PLUGIN_ENV"
	DefaultHotkey      = "Ctrl+Shift+S"
	DefaultChannelName = "dev.flutter.screenshot"
	DefaultOpacity     = 128
	DefaultPortStart   = 49600
	DefaultPortEnd     = 49650
	HotkeyModeRegion   = "region"
	HotkeyModeScreen   = "screen"
	minPort            = 1024
	maxPort            = 65535
)

type LoadOptions struct {
	EnvFileOverride    string
	HotkeyModeOverride string
	// IncludeCursorOverride wins over INCLUDE_CURSOR when non-nil.
	IncludeCursorOverride *bool
}

type Config struct {
	EnableFileLogging bool
	Hotkey            string
	HotkeyMode        string
	IncludeCursor     bool
	OverlayOpacity    uint8
	ChannelName       string
	ChannelPortStart  int
	ChannelPortEnd    int
	PNGCompression    string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) explicit override path
	// 2) .env in the application (executable) directory
	// 3) SCREENSHOT_PLUGIN_ENV as a path to a config file
	envPath := resolveEnvPath(opts.EnvFileOverride)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	start, end := resolvePortRange(os.Getenv("CHANNEL_PORT_START"), os.Getenv("CHANNEL_PORT_END"))

	cfg := &Config{
		EnableFileLogging: parseBool(os.Getenv("ENABLE_FILE_LOGGING"), false),
		Hotkey:            getEnvWithDefault("HOTKEY", DefaultHotkey),
		HotkeyMode:        resolveHotkeyModeValue(opts),
		IncludeCursor:     parseBool(os.Getenv("INCLUDE_CURSOR"), false),
		OverlayOpacity:    resolveOpacity(os.Getenv("OVERLAY_OPACITY")),
		ChannelName:       getEnvWithDefault("CHANNEL_NAME", DefaultChannelName),
		ChannelPortStart:  start,
		ChannelPortEnd:    end,
		PNGCompression:    strings.TrimSpace(os.Getenv("PNG_COMPRESSION")),
	}
	if opts.IncludeCursorOverride != nil {
		cfg.IncludeCursor = *opts.IncludeCursorOverride
	}

	return cfg, nil
}

func resolveEnvPath(override string) string {
	if override = strings.TrimSpace(override); override != "" {
		if _, err := os.Stat(override); err == nil {
			return override
		}
	}

	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return fallback
	}
}

func resolveHotkeyMode(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case HotkeyModeScreen, "full", "fullscreen":
		return HotkeyModeScreen
	default:
		return HotkeyModeRegion
	}
}

func resolveHotkeyModeValue(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.HotkeyModeOverride); override != "" {
		return resolveHotkeyMode(override)
	}
	return resolveHotkeyMode(os.Getenv("HOTKEY_MODE"))
}

func resolveOpacity(value string) uint8 {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 1 || n > 255 {
		return DefaultOpacity
	}
	return uint8(n)
}

// resolvePortRange falls back to defaults when unset/invalid, clamps to
// [1024, 65535] and swaps a reversed range.
func resolvePortRange(startValue, endValue string) (int, int) {
	start, end := DefaultPortStart, DefaultPortEnd
	if n, err := strconv.Atoi(strings.TrimSpace(startValue)); err == nil {
		start = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(endValue)); err == nil {
		end = n
	}
	if start < minPort {
		start = minPort
	}
	if end > maxPort {
		end = maxPort
	}
	if end < start {
		start, end = end, start
	}
	return start, end
}
