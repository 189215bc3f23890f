package plot

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/motiontrack/internal/tracking/dopesheet"
)

var coverageColors = map[dopesheet.Coverage]string{
	dopesheet.CoverageBad:        "#d62728",
	dopesheet.CoverageAcceptable: "#ff7f0e",
	dopesheet.CoverageOK:         "#2ca02c",
}

// coverageFrames expands coverage segments into one bar per frame.
func coverageFrames(segs []dopesheet.CoverageSegment) ([]string, []opts.BarData) {
	var x []string
	var y []opts.BarData
	for _, s := range segs {
		for f := s.Start; f <= s.End; f++ {
			x = append(x, strconv.Itoa(f))
			y = append(y, opts.BarData{
				Name:      s.Coverage.String(),
				Value:     int(s.Coverage) + 1,
				ItemStyle: &opts.ItemStyle{Color: coverageColors[s.Coverage]},
			})
		}
	}
	return x, y
}

// CoverageHTML renders an HTML page with the per-frame coverage of the
// dopesheet and the tracked length of every channel.
func CoverageHTML(w io.Writer, ds *dopesheet.Dopesheet) error {
	frames, levels := coverageFrames(ds.Coverage)
	sum := ds.Summary()

	cov := charts.NewBar()
	cov.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Tracking Coverage", Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Frame Coverage", Subtitle: "1 = bad, 2 = acceptable, 3 = ok"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 3}),
	)
	cov.SetXAxis(frames).AddSeries("coverage", levels)

	names := make([]string, 0, len(ds.Channels))
	lengths := make([]opts.BarData, 0, len(ds.Channels))
	for _, ch := range ds.Channels {
		names = append(names, ch.Label)
		lengths = append(lengths, opts.BarData{Value: ch.TotalFrames})
	}
	tracks := charts.NewBar()
	tracks.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Tracked Frames",
			Subtitle: fmt.Sprintf("channels=%d mean=%.1f frames longest=%d", sum.Channels, sum.MeanFrames, sum.LongestSpan),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	tracks.SetXAxis(names).
		AddSeries("frames", lengths,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.PageTitle = "Tracking Coverage"
	page.AddCharts(cov, tracks)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render coverage: %w", err)
	}
	return nil
}
