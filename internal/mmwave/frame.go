package mmwave

import (
	"encoding/binary"
	"fmt"
)

// Wire layout constants.
const (
	HeaderSize    = 52 // fixed frame header, magic word included
	TLVHeaderSize = 8  // typeCode(4) + declaredLength(4)

	// prefixSize covers magic + version + packetLength, the part of the
	// header needed before the frame length is known.
	prefixSize = 16

	// headerFieldsSize is the number of header bytes carrying fields. The
	// remaining bytes up to HeaderSize are padding emitted by the device.
	headerFieldsSize = 48

	DefaultMaxPacketLength = 64 * 1024
)

// Magic is the frame start marker.
var Magic = [8]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

// TLVType is the type code of a TLV record.
type TLVType uint32

const (
	TypeTargetList         TLVType = 1010
	TypeTargetIndex        TLVType = 1011
	TypePresenceIndication TLVType = 1012
	TypePointCloud         TLVType = 1020
	TypeTargetHeight       TLVType = 1021
)

func (t TLVType) String() string {
	switch t {
	case TypeTargetList:
		return "TargetList"
	case TypeTargetIndex:
		return "TargetIndex"
	case TypePresenceIndication:
		return "PresenceIndication"
	case TypePointCloud:
		return "PointCloud"
	case TypeTargetHeight:
		return "TargetHeight"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(t))
	}
}

// Known reports whether t has a dedicated payload decoder.
func (t TLVType) Known() bool {
	switch t {
	case TypeTargetList, TypeTargetIndex, TypePresenceIndication, TypePointCloud, TypeTargetHeight:
		return true
	}
	return false
}

// FrameHeader is the decoded 52-byte frame header.
//
// Checksum is surfaced as sent by the device; no checksum algorithm is
// defined for it, so it is never verified.
type FrameHeader struct {
	Magic             [8]byte `json:"magic"`
	Version           uint32  `json:"version"`
	PacketLength      uint32  `json:"packetLength"`
	Platform          uint32  `json:"platform"`
	FrameNumber       uint32  `json:"frameNumber"`
	SubframeNumber    uint32  `json:"subframeNumber"`
	ChirpMargin       uint32  `json:"chirpMargin"`
	FrameProcTimeUsec uint32  `json:"frameProcTimeUsec"`
	TrackProcessTime  uint32  `json:"trackProcessTime"`
	UARTSentTime      uint32  `json:"uartSentTime"`
	NumTLVs           uint16  `json:"numTLVs"`
	Checksum          uint16  `json:"checksum"`
}

// DecodeHeader decodes the first HeaderSize bytes of buf.
func DecodeHeader(buf []byte) (FrameHeader, error) {
	var h FrameHeader
	if len(buf) < HeaderSize {
		return h, fmt.Errorf("%w: have %d of %d header bytes", ErrIncompleteHeader, len(buf), HeaderSize)
	}
	copy(h.Magic[:], buf[0:8])
	if h.Magic != Magic {
		return h, fmt.Errorf("%w: % x", ErrBadMagic, h.Magic)
	}

	le := binary.LittleEndian
	h.Version = le.Uint32(buf[8:12])
	h.PacketLength = le.Uint32(buf[12:16])
	h.Platform = le.Uint32(buf[16:20])
	h.FrameNumber = le.Uint32(buf[20:24])
	h.SubframeNumber = le.Uint32(buf[24:28])
	h.ChirpMargin = le.Uint32(buf[28:32])
	h.FrameProcTimeUsec = le.Uint32(buf[32:36])
	h.TrackProcessTime = le.Uint32(buf[36:40])
	h.UARTSentTime = le.Uint32(buf[40:44])
	h.NumTLVs = le.Uint16(buf[44:46])
	h.Checksum = le.Uint16(buf[46:48])
	return h, nil
}

// MarshalBinary encodes h into its 52-byte wire form. The magic word is
// always written as Magic, regardless of h.Magic.
func (h FrameHeader) MarshalBinary() ([]byte, error) {
	return h.appendBinary(make([]byte, 0, HeaderSize)), nil
}

func (h FrameHeader) appendBinary(b []byte) []byte {
	le := binary.LittleEndian
	b = append(b, Magic[:]...)
	b = le.AppendUint32(b, h.Version)
	b = le.AppendUint32(b, h.PacketLength)
	b = le.AppendUint32(b, h.Platform)
	b = le.AppendUint32(b, h.FrameNumber)
	b = le.AppendUint32(b, h.SubframeNumber)
	b = le.AppendUint32(b, h.ChirpMargin)
	b = le.AppendUint32(b, h.FrameProcTimeUsec)
	b = le.AppendUint32(b, h.TrackProcessTime)
	b = le.AppendUint32(b, h.UARTSentTime)
	b = le.AppendUint16(b, h.NumTLVs)
	b = le.AppendUint16(b, h.Checksum)
	return append(b, make([]byte, HeaderSize-headerFieldsSize)...)
}

// Frame is one decoded unit of the stream. A Frame is never modified by
// the decoder after it has been returned.
type Frame struct {
	Header FrameHeader `json:"header"`
	// TLVs are in stream order. len(TLVs) <= Header.NumTLVs.
	TLVs []TLV `json:"tlvs"`
	// Partial is set when TLV decoding stopped before Header.NumTLVs
	// records could be read.
	Partial bool `json:"partial,omitempty"`
	// Truncation is the malformed record that stopped TLV decoding, if any.
	Truncation *TLVError `json:"truncation,omitempty"`
}

// Find returns the first decoded record of the given type, if any.
func (f *Frame) Find(t TLVType) (TLV, bool) {
	for _, tlv := range f.TLVs {
		if tlv.Type == t {
			return tlv, true
		}
	}
	return TLV{}, false
}

// TLV is one type-length-value record. Exactly one of Payload and Err is
// set: an error-marked record keeps its type and length but carries no
// payload.
type TLV struct {
	Type    TLVType
	Length  uint32 // declared length, sub-header included
	Payload Payload
	Err     error
}
