package timer

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"
)

// AppContentReader defines the interface for reading content from the embedded file system.
type AppContentReader interface {
	ReadFile(name string) ([]byte, error)
}

// ConfigPath is the location of the run parameters inside the embedded assets.
const ConfigPath = "assets/scan_config.json"

// UI constants
const (
	FontSizeCountdown float32 = 160.0 // countdown digits, roughly 10em
	FontSizeStatus    float32 = 14.0

	// Dimensions
	PreviewWidth  = 480
	PreviewHeight = 360
	ButtonGap     = 5
)

// ScanConfig holds the run parameters.
type ScanConfig struct {
	BandWidth      int     `json:"band_width"`       // pixels per tick
	ScanDurationMs float64 `json:"scan_duration_ms"` // total scan time
	StartDelayMs   float64 `json:"start_delay_ms"`   // countdown length
	OverlayColor   string  `json:"overlay_color"`
	CaptureWidth   int     `json:"capture_width"`
	CaptureHeight  int     `json:"capture_height"`
	PreviewFPS     int     `json:"preview_fps"`
}

// DefaultScanConfig mirrors assets/scan_config.json.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		BandWidth:      1,
		ScanDurationMs: 10000,
		StartDelayMs:   3000,
		OverlayColor:   "#0F0",
		CaptureWidth:   640,
		CaptureHeight:  480,
		PreviewFPS:     15,
	}
}

// ScanDuration returns the scan length as a Duration.
func (c ScanConfig) ScanDuration() time.Duration {
	return Millis(c.ScanDurationMs)
}

// StartDelay returns the countdown length as a Duration.
func (c ScanConfig) StartDelay() time.Duration {
	return Millis(c.StartDelayMs)
}

// Overlay parses OverlayColor.
func (c ScanConfig) Overlay() (color.NRGBA, error) {
	return ParseHexColor(c.OverlayColor)
}

// Validate checks the values a scan cannot run without.
func (c ScanConfig) Validate() error {
	if c.BandWidth < 1 {
		return fmt.Errorf("band_width must be at least 1, got %d", c.BandWidth)
	}
	if c.ScanDurationMs <= 0 {
		return fmt.Errorf("scan_duration_ms must be positive, got %v", c.ScanDurationMs)
	}
	if c.StartDelayMs < 0 {
		return fmt.Errorf("start_delay_ms must not be negative, got %v", c.StartDelayMs)
	}
	if _, err := c.Overlay(); err != nil {
		return err
	}
	return nil
}

// LoadScanConfig reads the run parameters from the embedded assets, starting
// from the defaults so a partial file is fine.
func LoadScanConfig(reader AppContentReader) (ScanConfig, error) {
	cfg := DefaultScanConfig()
	data, err := reader.ReadFile(ConfigPath)
	if err != nil {
		return cfg, fmt.Errorf("read scan config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal scan config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid scan config: %w", err)
	}
	return cfg, nil
}

// ParseHexColor accepts #RGB, #RRGGBB and #RRGGBBAA.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
