package db

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hoangnv31/mmwave-tracking/internal/httputil"
	"github.com/hoangnv31/mmwave-tracking/internal/mmwave"
)

// FrameRecord is one row of the frames table with its TLV rows.
type FrameRecord struct {
	ID             int64       `json:"id"`
	FrameNumber    uint32      `json:"frame_number"`
	SubframeNumber uint32      `json:"subframe_number"`
	Version        uint32      `json:"version"`
	Platform       uint32      `json:"platform"`
	PacketLength   uint32      `json:"packet_length"`
	NumTLVs        uint16      `json:"num_tlvs"`
	DecodedTLVs    int         `json:"decoded_tlvs"`
	Partial        bool        `json:"partial"`
	Checksum       uint16      `json:"checksum"`
	ReceivedAt     float64     `json:"received_at"`
	TLVs           []TLVRecord `json:"tlvs"`
}

// TLVRecord is one row of the tlvs table.
type TLVRecord struct {
	Index          int    `json:"index"`
	TypeCode       uint32 `json:"type_code"`
	DeclaredLength uint32 `json:"declared_length"`
	RecordCount    int    `json:"record_count"`
	Error          string `json:"error,omitempty"`
}

// recordCount is the number of items a payload carries: points, targets,
// ids or heights. Presence and raw payloads count as one.
func recordCount(p mmwave.Payload) int {
	switch p := p.(type) {
	case mmwave.PointCloud:
		return len(p.Points)
	case mmwave.TargetList:
		return len(p.Targets)
	case mmwave.TargetIndex:
		return len(p.TargetIDs)
	case mmwave.TargetHeight:
		return len(p.Heights)
	case nil:
		return 0
	default:
		return 1
	}
}

// RecordFrame stores a decoded frame and its TLV summaries. It returns
// the new frame row ID.
func (db *DB) RecordFrame(f *mmwave.Frame, receivedAt time.Time) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	h := f.Header
	res, err := tx.Exec(
		`INSERT INTO frames (
			frame_number, subframe_number, version, platform, packet_length,
			num_tlvs, decoded_tlvs, partial, checksum, received_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.FrameNumber, h.SubframeNumber, h.Version, h.Platform, h.PacketLength,
		h.NumTLVs, len(f.TLVs), f.Partial, h.Checksum,
		float64(receivedAt.UnixNano())/1e9,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert frame %d: %w", h.FrameNumber, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, t := range f.TLVs {
		var errText any
		if t.Err != nil {
			errText = t.Err.Error()
		}
		if _, err := tx.Exec(
			`INSERT INTO tlvs (frame_id, tlv_index, type_code, declared_length, record_count, error)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, i, uint32(t.Type), t.Length, recordCount(t.Payload), errText,
		); err != nil {
			return 0, fmt.Errorf("failed to insert tlv %d of frame %d: %w", i, h.FrameNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// RecentFrames returns up to limit frames, newest first.
func (db *DB) RecentFrames(limit int) ([]FrameRecord, error) {
	rows, err := db.Query(
		`SELECT frame_id, frame_number, subframe_number, version, platform,
			packet_length, num_tlvs, decoded_tlvs, partial, checksum, received_at
		FROM frames ORDER BY frame_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	frames := []FrameRecord{}
	index := map[int64]int{}
	for rows.Next() {
		var r FrameRecord
		if err := rows.Scan(
			&r.ID, &r.FrameNumber, &r.SubframeNumber, &r.Version, &r.Platform,
			&r.PacketLength, &r.NumTLVs, &r.DecodedTLVs, &r.Partial, &r.Checksum, &r.ReceivedAt,
		); err != nil {
			return nil, err
		}
		index[r.ID] = len(frames)
		frames = append(frames, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return frames, nil
	}

	tlvRows, err := db.Query(
		`SELECT frame_id, tlv_index, type_code, declared_length, record_count, COALESCE(error, '')
		FROM tlvs WHERE frame_id >= ? ORDER BY frame_id, tlv_index`,
		frames[len(frames)-1].ID)
	if err != nil {
		return nil, err
	}
	defer tlvRows.Close()

	for tlvRows.Next() {
		var frameID int64
		var t TLVRecord
		if err := tlvRows.Scan(&frameID, &t.Index, &t.TypeCode, &t.DeclaredLength, &t.RecordCount, &t.Error); err != nil {
			return nil, err
		}
		if i, ok := index[frameID]; ok {
			frames[i].TLVs = append(frames[i].TLVs, t)
		}
	}
	return frames, tlvRows.Err()
}

const (
	defaultRecentFrames = 20
	maxRecentFrames     = 1000
)

func (db *DB) serveRecentFrames(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryLimit(r, defaultRecentFrames, maxRecentFrames)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	frames, err := db.RecentFrames(limit)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to retrieve frames: %v", err))
		return
	}
	httputil.WriteJSONOK(w, frames)
}
