package capture

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/hoangnv31/mmwave-tracking/internal/mmwave"
)

// ErrNoTracks is returned by PlotTracks when no entry carries a target.
var ErrNoTracks = errors.New("no target tracks in capture")

// Tracks groups the target positions of entries by target id, in
// recording order. Only the x/y ground-plane coordinates are kept.
func Tracks(entries []Entry) map[uint32]plotter.XYs {
	tracks := make(map[uint32]plotter.XYs)
	for _, e := range entries {
		if e.FrameData == nil {
			continue
		}
		tlv, ok := e.FrameData.Find(mmwave.TypeTargetList)
		if !ok || tlv.Err != nil {
			continue
		}
		list, ok := tlv.Payload.(mmwave.TargetList)
		if !ok {
			continue
		}
		for _, t := range list.Targets {
			tracks[t.ID] = append(tracks[t.ID], plotter.XY{X: float64(t.Position[0]), Y: float64(t.Position[1])})
		}
	}
	return tracks
}

// PlotTracks renders the target tracks of a capture to w. format is any
// image format gonum/plot supports, such as "png" or "svg".
func PlotTracks(entries []Entry, w io.Writer, format string) error {
	tracks := Tracks(entries)
	if len(tracks) == 0 {
		return ErrNoTracks
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Target tracks (%d frames)", len(entries))
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(plotter.NewGrid())

	ids := make([]uint32, 0, len(tracks))
	for id := range tracks {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for i, id := range ids {
		line, points, err := plotter.NewLinePoints(tracks[id])
		if err != nil {
			return fmt.Errorf("target %d: %w", id, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		points.Radius = vg.Points(1.5)
		p.Add(line, points)
		p.Legend.Add(fmt.Sprintf("tid %d", id), line, points)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(8*vg.Inch, 8*vg.Inch, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
