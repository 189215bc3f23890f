package registry

import (
	"fmt"
	"strings"

	"github.com/banshee-data/motiontrack/internal/config"
	"github.com/banshee-data/motiontrack/internal/tracking/camera"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

// RefineFlag selects which camera intrinsics the solver may refine.
type RefineFlag uint8

const (
	RefineFocal RefineFlag = 1 << iota
	RefinePrincipal
	RefineK1
	RefineK2
)

var refineNames = map[string]RefineFlag{
	"focal":     RefineFocal,
	"principal": RefinePrincipal,
	"k1":        RefineK1,
	"k2":        RefineK2,
}

// Settings are the tracking defaults and solver options of a set.
type Settings struct {
	DefaultMotionModel    track.MotionModel
	DefaultPatternMatch   track.PatternMatch
	DefaultMinCorrelation float64
	DefaultPatternSize    int
	DefaultSearchSize     int
	DefaultMargin         int
	DefaultFramesLimit    int
	DefaultAlgorithmFlag  track.AlgorithmFlag
	DefaultWeight         float64

	TrackerIterations int
	TrackerSigma      float64
	Workers           int

	Keyframe1        int
	Keyframe2        int
	SelectKeyframes  bool
	RefineIntrinsics RefineFlag
	SuccessThreshold float64
	UseFallback      bool
	ObjectDistance   float64

	// Tripod solves rotation only, without a keyframe pair.
	Tripod bool
}

// Filter is the resampling kernel used for stabilized frames.
type Filter int

const (
	FilterNearest Filter = iota
	FilterBilinear
	FilterBicubic
)

// ParseFilter converts a config name into a Filter.
func ParseFilter(s string) (Filter, bool) {
	switch s {
	case "nearest":
		return FilterNearest, true
	case "bilinear":
		return FilterBilinear, true
	case "bicubic":
		return FilterBicubic, true
	}
	return FilterBilinear, false
}

func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterBicubic:
		return "bicubic"
	}
	return "bilinear"
}

// Stabilization holds 2D stabilization options plus the cached autoscale
// result. Tracks flagged track.UseStab2D drive it.
type Stabilization struct {
	Enabled   bool
	Autoscale bool
	Rotation  bool

	LocInfluence   float64
	ScaleInfluence float64
	RotInfluence   float64
	MaxScale       float64
	Filter         Filter

	// Scale is the working scale. It is recomputed by autoscale when
	// Valid is false.
	Scale float64
	Valid bool
}

// DefaultStabilization returns stabilization options with full influence.
func DefaultStabilization() Stabilization {
	return Stabilization{
		LocInfluence:   1,
		ScaleInfluence: 1,
		RotInfluence:   1,
		MaxScale:       2,
		Filter:         FilterBilinear,
		Scale:          1,
	}
}

// Invalidate drops the cached autoscale result.
func (s *Stabilization) Invalidate() { s.Valid = false }

// SettingsFromConfig converts a validated config into Settings.
func SettingsFromConfig(cfg *config.TrackingConfig) (Settings, error) {
	mm, ok := track.ParseMotionModel(cfg.GetMotionModel())
	if !ok {
		return Settings{}, fmt.Errorf("unknown motion model %q", cfg.GetMotionModel())
	}

	match := track.MatchKeyframe
	if cfg.GetPatternMatch() == "previous_frame" {
		match = track.MatchPreviousFrame
	}

	var algo track.AlgorithmFlag
	if cfg.GetUseBrute() {
		algo |= track.UseBrute
	}
	if cfg.GetUseNormalization() {
		algo |= track.UseNormalization
	}
	if cfg.GetUseMask() {
		algo |= track.UseMask
	}

	var refine RefineFlag
	for _, name := range cfg.GetRefineIntrinsics() {
		f, ok := refineNames[strings.ToLower(name)]
		if !ok {
			return Settings{}, fmt.Errorf("unknown refine_intrinsics entry %q", name)
		}
		refine |= f
	}

	return Settings{
		DefaultMotionModel:    mm,
		DefaultPatternMatch:   match,
		DefaultMinCorrelation: cfg.GetMinCorrelation(),
		DefaultPatternSize:    cfg.GetPatternSize(),
		DefaultSearchSize:     cfg.GetSearchSize(),
		DefaultMargin:         cfg.GetMargin(),
		DefaultFramesLimit:    cfg.GetFramesLimit(),
		DefaultAlgorithmFlag:  algo,
		DefaultWeight:         cfg.GetWeight(),
		TrackerIterations:     cfg.GetTrackerIterations(),
		TrackerSigma:          cfg.GetTrackerSigma(),
		Workers:               cfg.GetWorkers(),
		Keyframe1:             cfg.GetKeyframe1(),
		Keyframe2:             cfg.GetKeyframe2(),
		SelectKeyframes:       cfg.GetSelectKeyframes(),
		RefineIntrinsics:      refine,
		SuccessThreshold:      cfg.GetSuccessThreshold(),
		UseFallback:           cfg.GetUseFallback(),
		ObjectDistance:        cfg.GetObjectDistance(),
		Tripod:                cfg.GetTripod(),
	}, nil
}

// StabilizationFromConfig converts the stab_* config fields.
func StabilizationFromConfig(cfg *config.TrackingConfig) (Stabilization, error) {
	filter, ok := ParseFilter(cfg.GetStabFilter())
	if !ok {
		return Stabilization{}, fmt.Errorf("unknown stab_filter %q", cfg.GetStabFilter())
	}
	s := DefaultStabilization()
	s.Enabled = cfg.GetStabEnabled()
	s.Autoscale = cfg.GetStabAutoscale()
	s.Rotation = cfg.GetStabRotation()
	s.LocInfluence = cfg.GetStabLocInfluence()
	s.ScaleInfluence = cfg.GetStabScaleInfluence()
	s.RotInfluence = cfg.GetStabRotInfluence()
	s.MaxScale = cfg.GetStabMaxScale()
	s.Filter = filter
	return s, nil
}

// IntrinsicsFromConfig returns camera intrinsics for a w x h footage.
func IntrinsicsFromConfig(cfg *config.TrackingConfig, w, h int) camera.Intrinsics {
	in := camera.Default(w, h, cfg.GetFocalMM(), cfg.GetSensorWidth(), cfg.GetPixelAspect())
	in.K1 = cfg.GetK1()
	in.K2 = cfg.GetK2()
	in.K3 = cfg.GetK3()
	return in
}

// NewFromConfig validates cfg and builds an empty tracking set for w x h
// footage.
func NewFromConfig(cfg *config.TrackingConfig, w, h int) (*Tracking, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracking config: %w", err)
	}
	settings, err := SettingsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	stab, err := StabilizationFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	tr := New(settings, IntrinsicsFromConfig(cfg, w, h))
	tr.Stabilization = stab
	return tr, nil
}
