package mmwave

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// tlvJSON is the JSON form of a TLV. Exactly one payload field is set,
// or Error for error-marked records. Raw payloads are hex encoded.
type tlvJSON struct {
	Type         TLVType             `json:"type"`
	Length       uint32              `json:"length"`
	Error        string              `json:"error,omitempty"`
	PointCloud   *PointCloud         `json:"pointCloud,omitempty"`
	TargetList   *TargetList         `json:"targetList,omitempty"`
	TargetIndex  *TargetIndex        `json:"targetIndex,omitempty"`
	Presence     *PresenceIndication `json:"presenceIndication,omitempty"`
	TargetHeight *TargetHeight       `json:"targetHeight,omitempty"`
	Data         *string             `json:"data,omitempty"`
}

func (t TLV) MarshalJSON() ([]byte, error) {
	out := tlvJSON{Type: t.Type, Length: t.Length}
	if t.Err != nil {
		out.Error = t.Err.Error()
		return json.Marshal(out)
	}
	switch p := t.Payload.(type) {
	case PointCloud:
		out.PointCloud = &p
	case TargetList:
		out.TargetList = &p
	case TargetIndex:
		out.TargetIndex = &p
	case PresenceIndication:
		out.Presence = &p
	case TargetHeight:
		out.TargetHeight = &p
	case Raw:
		s := hex.EncodeToString(p.Bytes)
		out.Data = &s
	case nil:
	default:
		return nil, fmt.Errorf("unsupported payload %T", p)
	}
	return json.Marshal(out)
}

func (t *TLV) UnmarshalJSON(data []byte) error {
	var in tlvJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = TLV{Type: in.Type, Length: in.Length}
	if in.Error != "" {
		t.Err = errors.New(in.Error)
		return nil
	}

	switch {
	case in.PointCloud != nil:
		t.Payload = *in.PointCloud
	case in.TargetList != nil:
		t.Payload = *in.TargetList
	case in.TargetIndex != nil:
		t.Payload = *in.TargetIndex
	case in.Presence != nil:
		t.Payload = *in.Presence
	case in.TargetHeight != nil:
		t.Payload = *in.TargetHeight
	case in.Data != nil:
		b, err := hex.DecodeString(*in.Data)
		if err != nil {
			return fmt.Errorf("tlv %d: raw data: %w", in.Type, err)
		}
		t.Payload = Raw{Type: in.Type, Bytes: b}
	}
	return nil
}
