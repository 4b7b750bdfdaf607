package main

import (
	"errors"
	"io"
	"log"
	"math"

	"github.com/hoangnv31/mmwave-tracking/internal/capture"
	"github.com/hoangnv31/mmwave-tracking/internal/mmwave"
)

// devSource returns the frame generator for dev mode: recorded frames
// from replayDir when set, otherwise synthetic frames.
func devSource(replayDir string) (func() []byte, error) {
	if replayDir == "" {
		var n uint32
		return func() []byte {
			n++
			return syntheticFrame(n)
		}, nil
	}

	r, err := capture.NewReplayer(replayDir)
	if err != nil {
		return nil, err
	}
	log.Printf("replaying %d frames from %s", r.Len(), replayDir)
	return func() []byte {
		for {
			e, err := r.Next()
			if errors.Is(err, io.EOF) {
				// loop the session
				r.Rewind()
				continue
			}
			if err != nil {
				return nil
			}
			data, err := capture.Encode(e)
			if err != nil {
				log.Printf("skipping replay entry: %v", err)
				continue
			}
			return data
		}
	}, nil
}

// syntheticFrame builds frame n of a single target walking a circle in
// front of the sensor, with a small point cloud around it.
func syntheticFrame(n uint32) []byte {
	angle := float64(n) * 0.05
	x := float32(1.5 * math.Cos(angle))
	y := float32(3 + 1.5*math.Sin(angle))
	vx := float32(-0.75 * math.Sin(angle))
	vy := float32(0.75 * math.Cos(angle))

	unit := mmwave.PointUnit{
		Elevation: 0.01,
		Azimuth:   0.01,
		Doppler:   0.05,
		Range:     0.00025,
		SNR:       0.04,
	}
	rng := math.Hypot(float64(x), float64(y))
	az := math.Atan2(float64(x), float64(y))
	points := make([]mmwave.Point, 8)
	for i := range points {
		points[i] = mmwave.Point{
			Elevation: int8(i - 4),
			Azimuth:   int8(az/float64(unit.Azimuth)) + int8(i%3-1),
			Doppler:   int16(float32(math.Hypot(float64(vx), float64(vy))) / unit.Doppler),
			Range:     uint16(rng/float64(unit.Range)) + uint16(i*20),
			SNR:       int16(300 + i*10),
		}
	}

	target := mmwave.Target{
		ID:           1,
		Position:     [3]float32{x, y, 1.1},
		Velocity:     [3]float32{vx, vy, 0},
		GatingGain:   3,
	}
	return mmwave.EncodePayloads(
		mmwave.FrameHeader{Version: 0x03060000, Platform: 0xA6843, FrameNumber: n},
		mmwave.PointCloud{Unit: unit, Points: points},
		mmwave.TargetList{Targets: []mmwave.Target{target}},
		mmwave.TargetIndex{TargetIDs: []uint8{1, 1, 1, 1, 1, 1, 1, 1}},
		mmwave.PresenceIndication{Presence: 1},
		mmwave.TargetHeight{Heights: []mmwave.Height{{TargetID: 1, MaxZ: 1.8, MinZ: 0.1}}},
	)
}
