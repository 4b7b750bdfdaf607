package db

import (
	"bytes"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/hoangnv31/mmwave-tracking/internal/httputil"
	"github.com/hoangnv31/mmwave-tracking/internal/mmwave"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// FrameStats summarises a window of logged frames. Intervals are in
// seconds between consecutive received_at values.
type FrameStats struct {
	Frames         int     `json:"frames"`
	PartialFrames  int     `json:"partial_frames"`
	ErrorTLVs      int     `json:"error_tlvs"`
	MeanInterval   float64 `json:"mean_interval"`
	StdDevInterval float64 `json:"stddev_interval"`
	FrameRate      float64 `json:"frame_rate"`
	MeanPoints     float64 `json:"mean_points"`
	StdDevPoints   float64 `json:"stddev_points"`
	MeanTargets    float64 `json:"mean_targets"`
	MaxTargets     int     `json:"max_targets"`
}

// countOf returns the record count of the first TLV of type t, or 0.
func countOf(f FrameRecord, t mmwave.TLVType) int {
	for _, tlv := range f.TLVs {
		if tlv.TypeCode == uint32(t) && tlv.Error == "" {
			return tlv.RecordCount
		}
	}
	return 0
}

// oldestFirst returns frames sorted by row ID, ascending.
func oldestFirst(frames []FrameRecord) []FrameRecord {
	out := slices.Clone(frames)
	slices.SortFunc(out, func(a, b FrameRecord) int { return int(a.ID - b.ID) })
	return out
}

// ComputeFrameStats summarises frames in any order.
func ComputeFrameStats(frames []FrameRecord) FrameStats {
	s := FrameStats{Frames: len(frames)}
	if len(frames) == 0 {
		return s
	}
	frames = oldestFirst(frames)

	points := make([]float64, len(frames))
	targets := make([]float64, len(frames))
	var intervals []float64
	for i, f := range frames {
		if f.Partial {
			s.PartialFrames++
		}
		for _, tlv := range f.TLVs {
			if tlv.Error != "" {
				s.ErrorTLVs++
			}
		}
		points[i] = float64(countOf(f, mmwave.TypePointCloud))
		n := countOf(f, mmwave.TypeTargetList)
		targets[i] = float64(n)
		s.MaxTargets = max(s.MaxTargets, n)
		if i > 0 {
			intervals = append(intervals, f.ReceivedAt-frames[i-1].ReceivedAt)
		}
	}

	// sample deviation is undefined for one value and NaN breaks JSON
	s.MeanPoints = stat.Mean(points, nil)
	if len(points) > 1 {
		s.StdDevPoints = stat.StdDev(points, nil)
	}
	s.MeanTargets = stat.Mean(targets, nil)
	if len(intervals) > 0 {
		s.MeanInterval = stat.Mean(intervals, nil)
		if len(intervals) > 1 {
			s.StdDevInterval = stat.StdDev(intervals, nil)
		}
		if s.MeanInterval > 0 {
			s.FrameRate = 1 / s.MeanInterval
		}
	}
	return s
}

func (db *DB) serveFrameStats(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryLimit(r, 100, maxRecentFrames)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	frames, err := db.RecentFrames(limit)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to retrieve frames: %v", err))
		return
	}
	httputil.WriteJSONOK(w, ComputeFrameStats(frames))
}

// serveFrameChart renders points and targets per frame for the most
// recent frames as a go-echarts line chart.
func (db *DB) serveFrameChart(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryLimit(r, 200, maxRecentFrames)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	frames, err := db.RecentFrames(limit)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to retrieve frames: %v", err))
		return
	}
	frames = oldestFirst(frames)

	x := make([]string, len(frames))
	points := make([]opts.LineData, len(frames))
	targets := make([]opts.LineData, len(frames))
	for i, f := range frames {
		x[i] = strconv.FormatUint(uint64(f.FrameNumber), 10)
		points[i] = opts.LineData{Value: countOf(f, mmwave.TypePointCloud)}
		targets[i] = opts.LineData{Value: countOf(f, mmwave.TypeTargetList)}
	}

	s := ComputeFrameStats(frames)
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Radar Frames", Width: "100%", Height: "720px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Decoded Frames", Subtitle: fmt.Sprintf("frames=%d rate=%.1f/s partial=%d", s.Frames, s.FrameRate, s.PartialFrames)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
	)
	line.SetXAxis(x).
		AddSeries("points", points).
		AddSeries("targets", targets)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(line)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render error: %v", err))
		return
	}
	httputil.WriteHTML(w, buf.Bytes())
}
