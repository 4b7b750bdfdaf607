package mmwave

import (
	"encoding/binary"
	"math"
)

func appendF32(b []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
}

func (p PointCloud) appendPayload(b []byte) []byte {
	b = appendF32(b, p.Unit.Elevation)
	b = appendF32(b, p.Unit.Azimuth)
	b = appendF32(b, p.Unit.Doppler)
	b = appendF32(b, p.Unit.Range)
	b = appendF32(b, p.Unit.SNR)
	le := binary.LittleEndian
	for _, pt := range p.Points {
		b = append(b, byte(pt.Elevation), byte(pt.Azimuth))
		b = le.AppendUint16(b, uint16(pt.Doppler))
		b = le.AppendUint16(b, pt.Range)
		b = le.AppendUint16(b, uint16(pt.SNR))
	}
	return b
}

func (p TargetList) appendPayload(b []byte) []byte {
	for _, t := range p.Targets {
		b = binary.LittleEndian.AppendUint32(b, t.ID)
		for _, v := range t.Position {
			b = appendF32(b, v)
		}
		for _, v := range t.Velocity {
			b = appendF32(b, v)
		}
		for _, v := range t.Acceleration {
			b = appendF32(b, v)
		}
		for _, v := range t.ErrorCov {
			b = appendF32(b, v)
		}
		b = appendF32(b, t.GatingGain)
	}
	return b
}

func (p TargetIndex) appendPayload(b []byte) []byte {
	return append(b, p.TargetIDs...)
}

func (p PresenceIndication) appendPayload(b []byte) []byte {
	return binary.LittleEndian.AppendUint32(b, p.Presence)
}

func (p TargetHeight) appendPayload(b []byte) []byte {
	for _, h := range p.Heights {
		b = append(b, h.TargetID)
		b = appendF32(b, h.MaxZ)
		b = appendF32(b, h.MinZ)
	}
	return b
}

func (p Raw) appendPayload(b []byte) []byte {
	return append(b, p.Bytes...)
}

// AppendTLV appends the wire form of p, sub-header included, to b.
func AppendTLV(b []byte, p Payload) []byte {
	start := len(b)
	b = binary.LittleEndian.AppendUint32(b, uint32(p.TLVType()))
	b = binary.LittleEndian.AppendUint32(b, 0)
	b = p.appendPayload(b)
	binary.LittleEndian.PutUint32(b[start+4:], uint32(len(b)-start))
	return b
}

// EncodeTLV returns the wire form of p, sub-header included.
func EncodeTLV(p Payload) []byte {
	return AppendTLV(nil, p)
}

// EncodeFrame builds a frame from h and the given already-encoded TLVs.
// PacketLength and NumTLVs are computed; the other header fields are
// taken from h as is.
func EncodeFrame(h FrameHeader, tlvs ...[]byte) []byte {
	size := HeaderSize
	for _, t := range tlvs {
		size += len(t)
	}
	h.PacketLength = uint32(size)
	h.NumTLVs = uint16(len(tlvs))

	b := h.appendBinary(make([]byte, 0, size))
	for _, t := range tlvs {
		b = append(b, t...)
	}
	return b
}

// EncodePayloads is EncodeFrame for typed payloads.
func EncodePayloads(h FrameHeader, payloads ...Payload) []byte {
	tlvs := make([][]byte, len(payloads))
	for i, p := range payloads {
		tlvs[i] = EncodeTLV(p)
	}
	return EncodeFrame(h, tlvs...)
}
