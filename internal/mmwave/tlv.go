package mmwave

import (
	"encoding/binary"
	"fmt"
)

// DecodeTLVs decodes up to numTLVs records from frame, starting right
// after the frame header.
//
// Decoding stops without error when fewer than TLVHeaderSize bytes are
// left. A record whose declared length overruns the frame (or is too
// short to cover its own sub-header) stops decoding with a *TLVError;
// the records decoded before it are returned either way.
func DecodeTLVs(frame []byte, numTLVs uint16, r Reporter) ([]TLV, error) {
	return decodeTLVs(frame, numTLVs, 0, orNop(r))
}

func decodeTLVs(frame []byte, numTLVs uint16, frameNumber uint32, r Reporter) ([]TLV, error) {
	capacity := int(numTLVs)
	if limit := (len(frame) - HeaderSize) / TLVHeaderSize; limit < capacity {
		capacity = limit
	}
	if capacity < 0 {
		capacity = 0
	}
	tlvs := make([]TLV, 0, capacity)

	le := binary.LittleEndian
	cursor := HeaderSize
	for i := 0; i < int(numTLVs); i++ {
		remaining := len(frame) - cursor
		if remaining < TLVHeaderSize {
			r.Report(Diagnostic{
				Level:       LevelWarn,
				Kind:        KindShortTLVHeader,
				FrameNumber: frameNumber,
				Message:     fmt.Sprintf("decoded %d of %d TLVs, %d bytes left", i, numTLVs, max(remaining, 0)),
			})
			break
		}

		typ := TLVType(le.Uint32(frame[cursor:]))
		length := le.Uint32(frame[cursor+4:])
		if length < TLVHeaderSize || uint64(length) > uint64(remaining) {
			err := &TLVError{
				Index:          i,
				Offset:         cursor,
				Type:           typ,
				DeclaredLength: length,
				Remaining:      remaining,
			}
			r.Report(Diagnostic{Level: LevelError, Kind: KindMalformedTLV, FrameNumber: frameNumber, Type: typ, Err: err})
			return tlvs, err
		}

		payload := frame[cursor+TLVHeaderSize : cursor+int(length)]
		tlvs = append(tlvs, decodeTLV(typ, length, payload, frameNumber, r))
		cursor += int(length)
	}
	return tlvs, nil
}

// decodeTLV dispatches payload to the decoder for typ.
func decodeTLV(typ TLVType, length uint32, payload []byte, frameNumber uint32, r Reporter) TLV {
	rec := TLV{Type: typ, Length: length}

	var err error
	switch typ {
	case TypePointCloud:
		var p PointCloud
		if p, err = DecodePointCloud(payload); err == nil {
			rec.Payload = p
		}
	case TypeTargetList:
		var p TargetList
		if p, err = DecodeTargetList(payload); err == nil {
			rec.Payload = p
		}
	case TypeTargetIndex:
		var p TargetIndex
		if p, err = DecodeTargetIndex(payload); err == nil {
			rec.Payload = p
		}
	case TypePresenceIndication:
		var p PresenceIndication
		if p, err = DecodePresenceIndication(payload); err == nil {
			rec.Payload = p
		}
	case TypeTargetHeight:
		var p TargetHeight
		if p, err = DecodeTargetHeight(payload); err == nil {
			rec.Payload = p
		}
	default:
		rec.Payload = DecodeRaw(typ, payload)
		r.Report(Diagnostic{
			Level:       LevelInfo,
			Kind:        KindUnknownTLV,
			FrameNumber: frameNumber,
			Type:        typ,
			Message:     fmt.Sprintf("kept %d raw bytes", len(payload)),
		})
		return rec
	}

	if err != nil {
		rec.Err = err
		r.Report(Diagnostic{Level: LevelError, Kind: KindInvalidPayload, FrameNumber: frameNumber, Type: typ, Err: err})
		return rec
	}
	// Point cloud remainders are expected padding and not worth a notice.
	if n := trailingBytes(typ, len(payload)); n > 0 && typ != TypePointCloud {
		r.Report(Diagnostic{
			Level:       LevelWarn,
			Kind:        KindTrailingBytes,
			FrameNumber: frameNumber,
			Type:        typ,
			Message:     fmt.Sprintf("skipped incomplete trailing record of %d bytes", n),
		})
	}
	return rec
}
