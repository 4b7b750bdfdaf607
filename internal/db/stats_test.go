package db

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoangnv31/mmwave-tracking/internal/mmwave"
)

func statsRecord(id int64, at float64, points, targets int, partial bool) FrameRecord {
	return FrameRecord{
		ID:          id,
		FrameNumber: uint32(id),
		ReceivedAt:  at,
		Partial:     partial,
		TLVs: []TLVRecord{
			{Index: 0, TypeCode: uint32(mmwave.TypePointCloud), RecordCount: points},
			{Index: 1, TypeCode: uint32(mmwave.TypeTargetList), RecordCount: targets},
		},
	}
}

func TestComputeFrameStats(t *testing.T) {
	// newest first, as RecentFrames returns them
	frames := []FrameRecord{
		statsRecord(4, 10.3, 40, 3, false),
		statsRecord(3, 10.2, 30, 2, true),
		statsRecord(2, 10.1, 20, 1, false),
		statsRecord(1, 10.0, 10, 0, false),
	}
	frames[1].TLVs = append(frames[1].TLVs, TLVRecord{Index: 2, TypeCode: uint32(mmwave.TypePresenceIndication), Error: "bad length"})

	s := ComputeFrameStats(frames)
	assert.Equal(t, 4, s.Frames)
	assert.Equal(t, 1, s.PartialFrames)
	assert.Equal(t, 1, s.ErrorTLVs)
	assert.InDelta(t, 0.1, s.MeanInterval, 1e-9)
	assert.InDelta(t, 0, s.StdDevInterval, 1e-9)
	assert.InDelta(t, 10, s.FrameRate, 1e-6)
	assert.InDelta(t, 25, s.MeanPoints, 1e-9)
	assert.InDelta(t, 12.909944, s.StdDevPoints, 1e-6)
	assert.InDelta(t, 1.5, s.MeanTargets, 1e-9)
	assert.Equal(t, 3, s.MaxTargets)
}

func TestComputeFrameStats_Small(t *testing.T) {
	assert.Equal(t, FrameStats{}, ComputeFrameStats(nil))

	s := ComputeFrameStats([]FrameRecord{statsRecord(1, 5, 8, 1, false)})
	assert.Equal(t, 1, s.Frames)
	assert.Equal(t, 8.0, s.MeanPoints)
	assert.Zero(t, s.StdDevPoints)
	assert.Zero(t, s.FrameRate)

	_, err := json.Marshal(s)
	assert.NoError(t, err)
}

func TestCountOf_SkipsErrorRecords(t *testing.T) {
	f := FrameRecord{TLVs: []TLVRecord{
		{TypeCode: uint32(mmwave.TypePointCloud), RecordCount: 0, Error: "truncated"},
	}}
	assert.Zero(t, countOf(f, mmwave.TypePointCloud))
	assert.Zero(t, countOf(f, mmwave.TypeTargetList))
}

func TestAttachAdminRoutes_FrameStatsAndChart(t *testing.T) {
	db := newTestDB(t)
	start := time.Unix(1700000000, 0)
	for n := uint32(1); n <= 3; n++ {
		_, err := db.RecordFrame(testFrame(n), start.Add(time.Duration(n)*50*time.Millisecond))
		require.NoError(t, err)
	}

	mux := http.NewServeMux()
	db.AttachAdminRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, localHostRequest(http.MethodGet, "/debug/frame-stats"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var s FrameStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, 3, s.Frames)
	assert.Equal(t, 3, s.PartialFrames)
	assert.InDelta(t, 0.05, s.MeanInterval, 1e-3)
	assert.Equal(t, 2.0, s.MeanPoints)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, localHostRequest(http.MethodGet, "/debug/frame-stats?limit=nope"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, localHostRequest(http.MethodGet, "/debug/frame-chart?limit=10"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "Decoded Frames"), "chart title missing")
	assert.True(t, strings.Contains(body, "targets"), "series missing")
}
