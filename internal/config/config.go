// Package config assembles the server's tuning from defaults, DOCSCAN_*
// environment variables and per-call JSON overrides.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	docimaging "github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/scanner"
	"github.com/ironsheep/docscan-mcp/internal/tracking"
)

// Config is every adjustable parameter of the scanning pipeline.
type Config struct {
	Detection detection.Options         `json:"detection"`
	Stability tracking.Options          `json:"stability"`
	Enhance   docimaging.EnhanceOptions `json:"enhance"`
	Overlay   docimaging.OverlayStyle   `json:"overlay"`

	// Crop is "perspective" or "bounds".
	Crop scanner.Crop `json:"crop"`

	// PreviewMaxSide caps the longer side of images returned to the client.
	// 0 returns full resolution.
	PreviewMaxSide int `json:"preview_max_side"`

	// LogLevel is "info" or "debug".
	LogLevel string `json:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Detection:      detection.DefaultOptions(),
		Stability:      tracking.DefaultOptions(),
		Enhance:        docimaging.DefaultEnhanceOptions(),
		Overlay:        docimaging.DefaultOverlayStyle(),
		Crop:           scanner.CropPerspective,
		PreviewMaxSide: 1024,
		LogLevel:       "info",
	}
}

// Load returns the defaults overridden by DOCSCAN_* environment variables.
func Load() (Config, error) {
	return FromEnv(Default(), os.Getenv)
}

// FromEnv overrides base with the variables that getenv reports as set.
func FromEnv(base Config, getenv func(string) string) (Config, error) {
	e := envReader{getenv: getenv}
	c := base

	c.LogLevel = strings.ToLower(e.getString("DOCSCAN_LOG_LEVEL", c.LogLevel))
	c.Crop = scanner.Crop(e.getString("DOCSCAN_CROP", string(c.Crop)))
	c.PreviewMaxSide = e.getInt("DOCSCAN_PREVIEW_MAX_SIDE", c.PreviewMaxSide)

	d := &c.Detection
	d.HueMin = e.getFloat("DOCSCAN_HUE_MIN", d.HueMin)
	d.HueMax = e.getFloat("DOCSCAN_HUE_MAX", d.HueMax)
	d.SatMax = e.getFloat("DOCSCAN_SAT_MAX", d.SatMax)
	d.ValMin = e.getFloat("DOCSCAN_VAL_MIN", d.ValMin)
	d.BlurSize = e.getInt("DOCSCAN_BLUR_SIZE", d.BlurSize)
	d.MorphSize = e.getInt("DOCSCAN_MORPH_SIZE", d.MorphSize)
	d.MorphIterations = e.getInt("DOCSCAN_MORPH_ITERATIONS", d.MorphIterations)
	d.MinAreaFraction = e.getFloat("DOCSCAN_MIN_AREA_FRACTION", d.MinAreaFraction)
	d.MaxAreaFraction = e.getFloat("DOCSCAN_MAX_AREA_FRACTION", d.MaxAreaFraction)
	d.ApproxEpsilon = e.getFloat("DOCSCAN_APPROX_EPSILON", d.ApproxEpsilon)
	d.RefineCorners = e.getBool("DOCSCAN_REFINE_CORNERS", d.RefineCorners)
	d.ShrinkFactor = e.getFloat("DOCSCAN_SHRINK_FACTOR", d.ShrinkFactor)
	d.MaxSide = e.getInt("DOCSCAN_MAX_SIDE", d.MaxSide)

	c.Stability.StableDistance = e.getFloat("DOCSCAN_STABLE_DISTANCE", c.Stability.StableDistance)
	c.Stability.HoldSeconds = e.getFloat("DOCSCAN_HOLD_SECONDS", c.Stability.HoldSeconds)

	c.Enhance.Brightness = e.getFloat("DOCSCAN_BRIGHTNESS", c.Enhance.Brightness)

	if e.err != nil {
		return base, e.err
	}
	return c, c.Validate()
}

// Merge applies a partial JSON object on top of c. Fields absent from raw
// keep their current values; unknown fields are rejected.
func (c Config) Merge(raw json.RawMessage) (Config, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return c, nil
	}
	merged := c
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&merged); err != nil {
		return c, fmt.Errorf("invalid config: %w", err)
	}
	if err := merged.Validate(); err != nil {
		return c, err
	}
	return merged, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if err := c.Stability.Validate(); err != nil {
		return fmt.Errorf("stability: %w", err)
	}
	if err := c.Enhance.Validate(); err != nil {
		return fmt.Errorf("enhance: %w", err)
	}
	switch c.Crop {
	case scanner.CropPerspective, scanner.CropBounds:
	default:
		return fmt.Errorf("crop: unknown mode %q", c.Crop)
	}
	if c.PreviewMaxSide < 0 {
		return fmt.Errorf("preview_max_side %d must not be negative", c.PreviewMaxSide)
	}
	switch c.LogLevel {
	case "info", "debug":
	default:
		return fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}
	return nil
}

// Debug reports whether debug logging is enabled.
func (c Config) Debug() bool {
	return c.LogLevel == "debug"
}

// ScannerOptions returns the options for a still-image scan.
func (c Config) ScannerOptions(enhance bool) scanner.Options {
	return scanner.Options{
		Detection: c.Detection,
		Crop:      c.Crop,
		Enhance:   enhance,
		Enhancer:  c.Enhance,
	}
}

// TrackerConfig returns the configuration for a live session.
func (c Config) TrackerConfig() tracking.Config {
	return tracking.Config{
		Detection: c.Detection,
		Stability: c.Stability,
		Overlay:   c.Overlay,
	}
}

// envReader reads typed variables and remembers the first parse error.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) getString(key, def string) string {
	if v := e.getenv(key); v != "" {
		return v
	}
	return def
}

func (e *envReader) getFloat(key string, def float64) float64 {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return f
}

func (e *envReader) getInt(key string, def int) int {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return n
}

func (e *envReader) getBool(key string, def bool) bool {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return b
}

func (e *envReader) fail(key, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}
