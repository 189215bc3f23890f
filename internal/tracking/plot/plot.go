package plot

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/motiontrack/internal/tracking/registry"
	"github.com/banshee-data/motiontrack/internal/tracking/stabilize"
	"github.com/banshee-data/motiontrack/internal/tracking/track"
)

// Default PNG size.
const (
	Width  = 10 * vg.Inch
	Height = 6 * vg.Inch
)

// WritePNG encodes p as a PNG of the default size.
func WritePNG(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return fmt.Errorf("png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// trackXYs returns the pixel positions of the enabled markers of t split
// into runs of consecutive frames, so gaps are not bridged by a line.
func trackXYs(t *track.Track, w, h int) []plotter.XYs {
	var runs []plotter.XYs
	var cur plotter.XYs
	prev := 0
	for _, m := range t.Markers {
		if !m.Enabled() {
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		if len(cur) > 0 && m.Frame != prev+1 {
			runs = append(runs, cur)
			cur = nil
		}
		cur = append(cur, plotter.XY{X: m.Pos.X * float64(w), Y: m.Pos.Y * float64(h)})
		prev = m.Frame
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}

// TrackPaths plots the image-space path of every visible track of obj.
func TrackPaths(obj *registry.Object, w, h int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - Track Paths", obj.Name)
	p.X.Label.Text = "X (px)"
	p.Y.Label.Text = "Y (px)"
	p.X.Min, p.X.Max = 0, float64(w)
	p.Y.Min, p.Y.Max = 0, float64(h)

	n := 0
	for _, t := range obj.Tracks {
		if t.Hidden() {
			continue
		}
		runs := trackXYs(t, w, h)
		for j, run := range runs {
			line, err := plotter.NewLine(run)
			if err != nil {
				return nil, fmt.Errorf("track %q: %w", t.Name, err)
			}
			line.Color = plotutil.Color(n)
			line.Width = vg.Points(1)
			p.Add(line)
			if j == 0 {
				p.Legend.Add(t.Name, line)
			}
		}
		if len(runs) > 0 {
			n++
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// CameraPath plots the solved camera positions of obj seen from above
// (X against Z). It fails when obj is not reconstructed.
func CameraPath(obj *registry.Object) (*plot.Plot, error) {
	rec := &obj.Reconstruction
	if !rec.Reconstructed || len(rec.Cameras) == 0 {
		return nil, fmt.Errorf("%s: no reconstruction", obj.Name)
	}

	pts := make(plotter.XYs, 0, len(rec.Cameras))
	for _, c := range rec.Cameras {
		t := c.Mat.Translation()
		pts = append(pts, plotter.XY{X: t.X, Y: t.Z})
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - Camera Path (error %.4f)", obj.Name, rec.Error)
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Z"

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	line.Width = vg.Points(1)
	points.Radius = vg.Points(2)
	p.Add(line, points)
	return p, nil
}

// StabilizationCurves plots the per-frame correction from first to last:
// translation in pixels on one chart and scale and angle on another.
func StabilizationCurves(tr *registry.Tracking, first, last, w, h int) (translation, scaleAngle *plot.Plot, err error) {
	if last < first {
		return nil, nil, fmt.Errorf("empty frame range %d..%d", first, last)
	}
	n := last - first + 1
	tx := make(plotter.XYs, 0, n)
	ty := make(plotter.XYs, 0, n)
	sc := make(plotter.XYs, 0, n)
	an := make(plotter.XYs, 0, n)
	for f := first; f <= last; f++ {
		d := stabilize.Data(tr, f, w, h)
		x := float64(f)
		tx = append(tx, plotter.XY{X: x, Y: d.Translation.X})
		ty = append(ty, plotter.XY{X: x, Y: d.Translation.Y})
		sc = append(sc, plotter.XY{X: x, Y: d.Scale})
		an = append(an, plotter.XY{X: x, Y: d.Angle})
	}

	translation = plot.New()
	translation.Title.Text = "Stabilization - Translation"
	translation.X.Label.Text = "Frame"
	translation.Y.Label.Text = "Offset (px)"
	if err := plotutil.AddLines(translation, "x", tx, "y", ty); err != nil {
		return nil, nil, err
	}

	scaleAngle = plot.New()
	scaleAngle.Title.Text = "Stabilization - Scale and Angle"
	scaleAngle.X.Label.Text = "Frame"
	if err := plotutil.AddLines(scaleAngle, "scale", sc, "angle (rad)", an); err != nil {
		return nil, nil, err
	}
	return translation, scaleAngle, nil
}
