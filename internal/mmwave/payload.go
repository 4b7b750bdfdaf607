package mmwave

import (
	"encoding/binary"
	"math"
)

// Record sizes of the fixed-layout payloads.
const (
	PointUnitSize    = 20  // 5 x float32
	PointSize        = 8   // int8, int8, int16, uint16, int16
	TargetSize       = 108 // uint32 + 9 x float32 + 16 x float32 + float32
	TargetHeightSize = 9   // uint8 + 2 x float32
	PresenceSize     = 4
)

// Payload is the decoded content of a TLV. The set of implementations is
// closed: PointCloud, TargetList, TargetIndex, PresenceIndication,
// TargetHeight and Raw.
type Payload interface {
	TLVType() TLVType
	appendPayload(b []byte) []byte
}

// PointUnit holds the scale factors for the compressed point records.
type PointUnit struct {
	Elevation float32 `json:"elevationUnit"`
	Azimuth   float32 `json:"azimuthUnit"`
	Doppler   float32 `json:"dopplerUnit"`
	Range     float32 `json:"rangeUnit"`
	SNR       float32 `json:"snrUnit"`
}

// Point is one compressed point cloud record, in PointUnit steps.
type Point struct {
	Elevation int8   `json:"elevation"`
	Azimuth   int8   `json:"azimuth"`
	Doppler   int16  `json:"doppler"`
	Range     uint16 `json:"range"`
	SNR       int16  `json:"snr"`
}

// PointCloud is the payload of TypePointCloud.
type PointCloud struct {
	Unit   PointUnit `json:"unit"`
	Points []Point   `json:"points"`
}

func (PointCloud) TLVType() TLVType { return TypePointCloud }

// Target is one tracked target record.
type Target struct {
	ID           uint32      `json:"tid"`
	Position     [3]float32  `json:"pos"`
	Velocity     [3]float32  `json:"vel"`
	Acceleration [3]float32  `json:"acc"`
	ErrorCov     [16]float32 `json:"ec"`
	GatingGain   float32     `json:"g"`
}

// TargetList is the payload of TypeTargetList.
type TargetList struct {
	Targets []Target `json:"targets"`
}

func (TargetList) TLVType() TLVType { return TypeTargetList }

// TargetIndex is the payload of TypeTargetIndex: the target id each
// point of the previous frame's point cloud was associated with.
type TargetIndex struct {
	TargetIDs []uint8 `json:"targetIDs"`
}

func (TargetIndex) TLVType() TLVType { return TypeTargetIndex }

// PresenceIndication is the payload of TypePresenceIndication.
type PresenceIndication struct {
	Presence uint32 `json:"presence"`
}

func (PresenceIndication) TLVType() TLVType { return TypePresenceIndication }

// Height is one target height record.
type Height struct {
	TargetID uint8   `json:"targetID"`
	MaxZ     float32 `json:"maxZ"`
	MinZ     float32 `json:"minZ"`
}

// TargetHeight is the payload of TypeTargetHeight.
type TargetHeight struct {
	Heights []Height `json:"targetHeights"`
}

func (TargetHeight) TLVType() TLVType { return TypeTargetHeight }

// Raw preserves the payload of a TLV type without a decoder.
type Raw struct {
	Type  TLVType
	Bytes []byte
}

func (r Raw) TLVType() TLVType { return r.Type }

func f32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// DecodePointCloud decodes a point cloud payload: a unit block followed
// by as many whole point records as fit. Trailing bytes that do not form
// a full record are ignored. A payload too short for the unit block is an
// error.
func DecodePointCloud(payload []byte) (PointCloud, error) {
	var pc PointCloud
	if len(payload) < PointUnitSize {
		return pc, &PayloadError{Type: TypePointCloud, Length: len(payload), Want: "at least 20"}
	}
	pc.Unit = PointUnit{
		Elevation: f32(payload[0:]),
		Azimuth:   f32(payload[4:]),
		Doppler:   f32(payload[8:]),
		Range:     f32(payload[12:]),
		SNR:       f32(payload[16:]),
	}

	rest := payload[PointUnitSize:]
	n := len(rest) / PointSize
	pc.Points = make([]Point, n)
	le := binary.LittleEndian
	for i := range pc.Points {
		p := rest[i*PointSize : (i+1)*PointSize]
		pc.Points[i] = Point{
			Elevation: int8(p[0]),
			Azimuth:   int8(p[1]),
			Doppler:   int16(le.Uint16(p[2:4])),
			Range:     le.Uint16(p[4:6]),
			SNR:       int16(le.Uint16(p[6:8])),
		}
	}
	return pc, nil
}

// DecodeTargetList decodes len(payload)/TargetSize target records.
func DecodeTargetList(payload []byte) (TargetList, error) {
	n := len(payload) / TargetSize
	tl := TargetList{Targets: make([]Target, n)}
	for i := range tl.Targets {
		rec := payload[i*TargetSize : (i+1)*TargetSize]
		t := &tl.Targets[i]
		t.ID = binary.LittleEndian.Uint32(rec[0:4])
		off := 4
		for j := range t.Position {
			t.Position[j] = f32(rec[off:])
			off += 4
		}
		for j := range t.Velocity {
			t.Velocity[j] = f32(rec[off:])
			off += 4
		}
		for j := range t.Acceleration {
			t.Acceleration[j] = f32(rec[off:])
			off += 4
		}
		for j := range t.ErrorCov {
			t.ErrorCov[j] = f32(rec[off:])
			off += 4
		}
		t.GatingGain = f32(rec[off:])
	}
	return tl, nil
}

// DecodeTargetIndex decodes one target id per payload byte.
func DecodeTargetIndex(payload []byte) (TargetIndex, error) {
	ids := make([]uint8, len(payload))
	copy(ids, payload)
	return TargetIndex{TargetIDs: ids}, nil
}

// DecodePresenceIndication decodes a 4-byte presence bitmask. Any other
// payload length is an error.
func DecodePresenceIndication(payload []byte) (PresenceIndication, error) {
	if len(payload) != PresenceSize {
		return PresenceIndication{}, &PayloadError{Type: TypePresenceIndication, Length: len(payload), Want: "exactly 4"}
	}
	return PresenceIndication{Presence: binary.LittleEndian.Uint32(payload)}, nil
}

// DecodeTargetHeight decodes len(payload)/TargetHeightSize height records.
func DecodeTargetHeight(payload []byte) (TargetHeight, error) {
	n := len(payload) / TargetHeightSize
	th := TargetHeight{Heights: make([]Height, n)}
	for i := range th.Heights {
		rec := payload[i*TargetHeightSize : (i+1)*TargetHeightSize]
		th.Heights[i] = Height{
			TargetID: rec[0],
			MaxZ:     f32(rec[1:]),
			MinZ:     f32(rec[5:]),
		}
	}
	return th, nil
}

// DecodeRaw copies payload into a Raw record of type t.
func DecodeRaw(t TLVType, payload []byte) Raw {
	return Raw{Type: t, Bytes: append([]byte(nil), payload...)}
}

// trailingBytes returns the bytes left over after the whole records of a
// fixed-size record payload.
func trailingBytes(t TLVType, n int) int {
	switch t {
	case TypePointCloud:
		if n < PointUnitSize {
			return 0
		}
		return (n - PointUnitSize) % PointSize
	case TypeTargetList:
		return n % TargetSize
	case TypeTargetHeight:
		return n % TargetHeightSize
	}
	return 0
}
