package config

import "strings"

// GetSensorWidth returns the sensor_width value or the default.
func (c *TrackingConfig) GetSensorWidth() float64 {
	if c.SensorWidth == nil {
		return 35.0
	}
	return *c.SensorWidth
}

// GetPixelAspect returns the pixel_aspect value or the default.
func (c *TrackingConfig) GetPixelAspect() float64 {
	if c.PixelAspect == nil {
		return 1.0
	}
	return *c.PixelAspect
}

// GetFocalMM returns the focal_mm value or the default.
func (c *TrackingConfig) GetFocalMM() float64 {
	if c.FocalMM == nil {
		return 24.0
	}
	return *c.FocalMM
}

// GetK1 returns the k1 value or the default.
func (c *TrackingConfig) GetK1() float64 {
	if c.K1 == nil {
		return 0
	}
	return *c.K1
}

// GetK2 returns the k2 value or the default.
func (c *TrackingConfig) GetK2() float64 {
	if c.K2 == nil {
		return 0
	}
	return *c.K2
}

// GetK3 returns the k3 value or the default.
func (c *TrackingConfig) GetK3() float64 {
	if c.K3 == nil {
		return 0
	}
	return *c.K3
}

// GetMotionModel returns the motion_model value or the default.
func (c *TrackingConfig) GetMotionModel() string {
	if c.MotionModel == nil {
		return "Loc"
	}
	return *c.MotionModel
}

// GetPatternMatch returns the pattern_match value or the default.
func (c *TrackingConfig) GetPatternMatch() string {
	if c.PatternMatch == nil {
		return "keyframe"
	}
	return *c.PatternMatch
}

// GetMinCorrelation returns the min_correlation value or the default.
func (c *TrackingConfig) GetMinCorrelation() float64 {
	if c.MinCorrelation == nil {
		return 0.75
	}
	return *c.MinCorrelation
}

// GetPatternSize returns the pattern_size value or the default.
func (c *TrackingConfig) GetPatternSize() int {
	if c.PatternSize == nil {
		return 15
	}
	return *c.PatternSize
}

// GetSearchSize returns the search_size value or the default.
func (c *TrackingConfig) GetSearchSize() int {
	if c.SearchSize == nil {
		return 61
	}
	return *c.SearchSize
}

// GetMargin returns the margin value or the default.
func (c *TrackingConfig) GetMargin() int {
	if c.Margin == nil {
		return 0
	}
	return *c.Margin
}

// GetFramesLimit returns the frames_limit value or the default.
func (c *TrackingConfig) GetFramesLimit() int {
	if c.FramesLimit == nil {
		return 0 // default: unlimited
	}
	return *c.FramesLimit
}

// GetUseBrute returns the use_brute value or the default.
func (c *TrackingConfig) GetUseBrute() bool {
	if c.UseBrute == nil {
		return true
	}
	return *c.UseBrute
}

// GetUseNormalization returns the use_normalization value or the default.
func (c *TrackingConfig) GetUseNormalization() bool {
	if c.UseNormalization == nil {
		return false
	}
	return *c.UseNormalization
}

// GetUseMask returns the use_mask value or the default.
func (c *TrackingConfig) GetUseMask() bool {
	if c.UseMask == nil {
		return false
	}
	return *c.UseMask
}

// GetWeight returns the weight value or the default.
func (c *TrackingConfig) GetWeight() float64 {
	if c.Weight == nil {
		return 1.0
	}
	return *c.Weight
}

// GetTrackerIterations returns the tracker_iterations value or the default.
func (c *TrackingConfig) GetTrackerIterations() int {
	if c.TrackerIterations == nil {
		return 50
	}
	return *c.TrackerIterations
}

// GetTrackerSigma returns the tracker_sigma value or the default.
func (c *TrackingConfig) GetTrackerSigma() float64 {
	if c.TrackerSigma == nil {
		return 0.9
	}
	return *c.TrackerSigma
}

// GetWorkers returns the workers value or the default.
func (c *TrackingConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0 // default: GOMAXPROCS
	}
	return *c.Workers
}

// GetKeyframe1 returns the keyframe1 value or the default.
func (c *TrackingConfig) GetKeyframe1() int {
	if c.Keyframe1 == nil {
		return 1
	}
	return *c.Keyframe1
}

// GetKeyframe2 returns the keyframe2 value or the default.
func (c *TrackingConfig) GetKeyframe2() int {
	if c.Keyframe2 == nil {
		return 30
	}
	return *c.Keyframe2
}

// GetSelectKeyframes returns the select_keyframes value or the default.
func (c *TrackingConfig) GetSelectKeyframes() bool {
	if c.SelectKeyframes == nil {
		return false
	}
	return *c.SelectKeyframes
}

// GetSuccessThreshold returns the success_threshold value or the default.
func (c *TrackingConfig) GetSuccessThreshold() float64 {
	if c.SuccessThreshold == nil {
		return 1e-3
	}
	return *c.SuccessThreshold
}

// GetUseFallback returns the use_fallback_reconstruction value or the default.
func (c *TrackingConfig) GetUseFallback() bool {
	if c.UseFallback == nil {
		return false
	}
	return *c.UseFallback
}

// GetTripod returns the tripod value or the default.
func (c *TrackingConfig) GetTripod() bool {
	if c.Tripod == nil {
		return false
	}
	return *c.Tripod
}

// GetObjectDistance returns the object_distance value or the default.
func (c *TrackingConfig) GetObjectDistance() float64 {
	if c.ObjectDistance == nil {
		return 1.0
	}
	return *c.ObjectDistance
}

// GetStabEnabled returns the stab_enabled value or the default.
func (c *TrackingConfig) GetStabEnabled() bool {
	if c.StabEnabled == nil {
		return false
	}
	return *c.StabEnabled
}

// GetStabAutoscale returns the stab_autoscale value or the default.
func (c *TrackingConfig) GetStabAutoscale() bool {
	if c.StabAutoscale == nil {
		return false
	}
	return *c.StabAutoscale
}

// GetStabRotation returns the stab_rotation value or the default.
func (c *TrackingConfig) GetStabRotation() bool {
	if c.StabRotation == nil {
		return false
	}
	return *c.StabRotation
}

// GetStabLocInfluence returns the stab_loc_influence value or the default.
func (c *TrackingConfig) GetStabLocInfluence() float64 {
	if c.StabLocInfluence == nil {
		return 1.0
	}
	return *c.StabLocInfluence
}

// GetStabScaleInfluence returns the stab_scale_influence value or the default.
func (c *TrackingConfig) GetStabScaleInfluence() float64 {
	if c.StabScaleInfluence == nil {
		return 1.0
	}
	return *c.StabScaleInfluence
}

// GetStabRotInfluence returns the stab_rot_influence value or the default.
func (c *TrackingConfig) GetStabRotInfluence() float64 {
	if c.StabRotInfluence == nil {
		return 1.0
	}
	return *c.StabRotInfluence
}

// GetStabMaxScale returns the stab_max_scale value or the default.
func (c *TrackingConfig) GetStabMaxScale() float64 {
	if c.StabMaxScale == nil {
		return 2.0
	}
	return *c.StabMaxScale
}

// GetStabFilter returns the stab_filter value or the default.
func (c *TrackingConfig) GetStabFilter() string {
	if c.StabFilter == nil {
		return "bilinear"
	}
	return *c.StabFilter
}

// GetDetectMargin returns the detect_margin value or the default.
func (c *TrackingConfig) GetDetectMargin() int {
	if c.DetectMargin == nil {
		return 16
	}
	return *c.DetectMargin
}

// GetDetectThreshold returns the detect_threshold value or the default.
func (c *TrackingConfig) GetDetectThreshold() int {
	if c.DetectThreshold == nil {
		return 16
	}
	return *c.DetectThreshold
}

// GetDetectMinDistance returns the detect_min_distance value or the default.
func (c *TrackingConfig) GetDetectMinDistance() int {
	if c.DetectMinDistance == nil {
		return 120
	}
	return *c.DetectMinDistance
}

// GetDetectPlaceOutside returns the detect_place_outside value or the default.
func (c *TrackingConfig) GetDetectPlaceOutside() bool {
	if c.DetectPlaceOutside == nil {
		return false
	}
	return *c.DetectPlaceOutside
}

// GetDopesheetSort returns the dopesheet_sort value or the default.
func (c *TrackingConfig) GetDopesheetSort() string {
	if c.DopesheetSort == nil {
		return "name"
	}
	return *c.DopesheetSort
}

// GetDopesheetInverse returns the dopesheet_inverse value or the default.
func (c *TrackingConfig) GetDopesheetInverse() bool {
	if c.DopesheetInverse == nil {
		return false
	}
	return *c.DopesheetInverse
}

// GetDopesheetShowHidden returns the dopesheet_show_hidden value or the default.
func (c *TrackingConfig) GetDopesheetShowHidden() bool {
	if c.DopesheetShowHidden == nil {
		return false
	}
	return *c.DopesheetShowHidden
}

// GetDopesheetSelectedOnly returns the dopesheet_selected_only value or the default.
func (c *TrackingConfig) GetDopesheetSelectedOnly() bool {
	if c.DopesheetSelectedOnly == nil {
		return false
	}
	return *c.DopesheetSelectedOnly
}

// GetRefineIntrinsics returns the refine_intrinsics entries, trimmed. An
// empty result means no intrinsics are refined.
func (c *TrackingConfig) GetRefineIntrinsics() []string {
	if c.RefineIntrinsics == nil || *c.RefineIntrinsics == "" {
		return nil
	}
	parts := strings.Split(*c.RefineIntrinsics, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
