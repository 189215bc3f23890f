package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigPath is the path to the canonical tracking defaults file.
// This is the single source of truth for all default tracking values.
const DefaultConfigPath = "config/tracking.defaults.json"

// TrackingConfig represents the root configuration for the tracking engine.
// Every field is optional; Get* methods fall back to built-in defaults so
// partial configs are safe.
type TrackingConfig struct {
	// Camera intrinsics
	SensorWidth *float64 `json:"sensor_width,omitempty"` // mm
	PixelAspect *float64 `json:"pixel_aspect,omitempty"`
	FocalMM     *float64 `json:"focal_mm,omitempty"`
	K1          *float64 `json:"k1,omitempty"`
	K2          *float64 `json:"k2,omitempty"`
	K3          *float64 `json:"k3,omitempty"`

	// New track defaults
	MotionModel      *string  `json:"motion_model,omitempty"`  // Loc, LocRot, LocScale, LocRotScale, Affine, Perspective
	PatternMatch     *string  `json:"pattern_match,omitempty"` // keyframe, previous_frame
	MinCorrelation   *float64 `json:"min_correlation,omitempty"`
	PatternSize      *int     `json:"pattern_size,omitempty"` // pixels
	SearchSize       *int     `json:"search_size,omitempty"`  // pixels
	Margin           *int     `json:"margin,omitempty"`       // pixels
	FramesLimit      *int     `json:"frames_limit,omitempty"`
	UseBrute         *bool    `json:"use_brute,omitempty"`
	UseNormalization *bool    `json:"use_normalization,omitempty"`
	UseMask          *bool    `json:"use_mask,omitempty"`
	Weight           *float64 `json:"weight,omitempty"`

	// Region tracker params
	TrackerIterations *int     `json:"tracker_iterations,omitempty"`
	TrackerSigma      *float64 `json:"tracker_sigma,omitempty"`
	Workers           *int     `json:"workers,omitempty"` // 0 = GOMAXPROCS

	// Reconstruction params
	Keyframe1        *int     `json:"keyframe1,omitempty"`
	Keyframe2        *int     `json:"keyframe2,omitempty"`
	SelectKeyframes  *bool    `json:"select_keyframes,omitempty"`
	RefineIntrinsics *string  `json:"refine_intrinsics,omitempty"` // comma list of focal, principal, k1, k2
	SuccessThreshold *float64 `json:"success_threshold,omitempty"`
	UseFallback      *bool    `json:"use_fallback_reconstruction,omitempty"`
	Tripod           *bool    `json:"tripod,omitempty"`
	ObjectDistance   *float64 `json:"object_distance,omitempty"`

	// Stabilization params
	StabEnabled        *bool    `json:"stab_enabled,omitempty"`
	StabAutoscale      *bool    `json:"stab_autoscale,omitempty"`
	StabRotation       *bool    `json:"stab_rotation,omitempty"`
	StabLocInfluence   *float64 `json:"stab_loc_influence,omitempty"`
	StabScaleInfluence *float64 `json:"stab_scale_influence,omitempty"`
	StabRotInfluence   *float64 `json:"stab_rot_influence,omitempty"`
	StabMaxScale       *float64 `json:"stab_max_scale,omitempty"`
	StabFilter         *string  `json:"stab_filter,omitempty"` // nearest, bilinear, bicubic

	// Feature detection params
	DetectMargin       *int  `json:"detect_margin,omitempty"`
	DetectThreshold    *int  `json:"detect_threshold,omitempty"`
	DetectMinDistance  *int  `json:"detect_min_distance,omitempty"`
	DetectPlaceOutside *bool `json:"detect_place_outside,omitempty"`

	// Dopesheet params
	DopesheetSort         *string `json:"dopesheet_sort,omitempty"` // name, longest, total, average_error
	DopesheetInverse      *bool   `json:"dopesheet_inverse,omitempty"`
	DopesheetShowHidden   *bool   `json:"dopesheet_show_hidden,omitempty"`
	DopesheetSelectedOnly *bool   `json:"dopesheet_selected_only,omitempty"`
}

// EmptyTrackingConfig returns a TrackingConfig with all fields set to nil.
// Use LoadTrackingConfig to load actual values from the defaults file.
func EmptyTrackingConfig() *TrackingConfig {
	return &TrackingConfig{}
}

// LoadTrackingConfig loads a TrackingConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadTrackingConfig(path string) (*TrackingConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTrackingConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TrackingConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/tracking/track2d/
		"../../../../" + DefaultConfigPath,    // from internal/tracking/storage/sqlite/
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadTrackingConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

var (
	validMotionModels  = []string{"Loc", "LocRot", "LocScale", "LocRotScale", "Affine", "Perspective"}
	validPatternMatch  = []string{"keyframe", "previous_frame"}
	validFilters       = []string{"nearest", "bilinear", "bicubic"}
	validSortMethods   = []string{"name", "longest", "total", "average_error"}
	validRefineOptions = []string{"focal", "principal", "k1", "k2"}
)

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Validate checks that the configuration values are valid.
func (c *TrackingConfig) Validate() error {
	if c.SensorWidth != nil && *c.SensorWidth <= 0 {
		return fmt.Errorf("sensor_width must be positive, got %f", *c.SensorWidth)
	}
	if c.PixelAspect != nil && *c.PixelAspect <= 0 {
		return fmt.Errorf("pixel_aspect must be positive, got %f", *c.PixelAspect)
	}
	if c.FocalMM != nil && *c.FocalMM < 0 {
		return fmt.Errorf("focal_mm must be non-negative, got %f", *c.FocalMM)
	}
	if c.MotionModel != nil && !oneOf(*c.MotionModel, validMotionModels) {
		return fmt.Errorf("invalid motion_model %q, want one of %v", *c.MotionModel, validMotionModels)
	}
	if c.PatternMatch != nil && !oneOf(*c.PatternMatch, validPatternMatch) {
		return fmt.Errorf("invalid pattern_match %q, want one of %v", *c.PatternMatch, validPatternMatch)
	}
	if c.MinCorrelation != nil && (*c.MinCorrelation < -1 || *c.MinCorrelation > 1) {
		return fmt.Errorf("min_correlation must be between -1 and 1, got %f", *c.MinCorrelation)
	}
	if c.PatternSize != nil && *c.PatternSize < 5 {
		return fmt.Errorf("pattern_size must be at least 5, got %d", *c.PatternSize)
	}
	if c.SearchSize != nil && *c.SearchSize < 5 {
		return fmt.Errorf("search_size must be at least 5, got %d", *c.SearchSize)
	}
	if c.PatternSize != nil && c.SearchSize != nil && *c.SearchSize < *c.PatternSize {
		return fmt.Errorf("search_size (%d) must not be smaller than pattern_size (%d)", *c.SearchSize, *c.PatternSize)
	}
	if c.Margin != nil && *c.Margin < 0 {
		return fmt.Errorf("margin must be non-negative, got %d", *c.Margin)
	}
	if c.FramesLimit != nil && *c.FramesLimit < 0 {
		return fmt.Errorf("frames_limit must be non-negative, got %d", *c.FramesLimit)
	}
	if c.TrackerIterations != nil && *c.TrackerIterations <= 0 {
		return fmt.Errorf("tracker_iterations must be positive, got %d", *c.TrackerIterations)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.Keyframe1 != nil && c.Keyframe2 != nil && *c.Keyframe1 >= *c.Keyframe2 {
		return fmt.Errorf("keyframe1 (%d) must precede keyframe2 (%d)", *c.Keyframe1, *c.Keyframe2)
	}
	if c.RefineIntrinsics != nil && *c.RefineIntrinsics != "" {
		for _, opt := range strings.Split(*c.RefineIntrinsics, ",") {
			if !oneOf(strings.TrimSpace(opt), validRefineOptions) {
				return fmt.Errorf("invalid refine_intrinsics entry %q, want any of %v", opt, validRefineOptions)
			}
		}
	}
	if c.StabMaxScale != nil && *c.StabMaxScale < 1 {
		return fmt.Errorf("stab_max_scale must be at least 1, got %f", *c.StabMaxScale)
	}
	for name, v := range map[string]*float64{
		"stab_loc_influence":   c.StabLocInfluence,
		"stab_scale_influence": c.StabScaleInfluence,
		"stab_rot_influence":   c.StabRotInfluence,
	} {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
		}
	}
	if c.StabFilter != nil && !oneOf(*c.StabFilter, validFilters) {
		return fmt.Errorf("invalid stab_filter %q, want one of %v", *c.StabFilter, validFilters)
	}
	if c.DopesheetSort != nil && !oneOf(*c.DopesheetSort, validSortMethods) {
		return fmt.Errorf("invalid dopesheet_sort %q, want one of %v", *c.DopesheetSort, validSortMethods)
	}
	return nil
}
