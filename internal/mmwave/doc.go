// Package mmwave decodes the UART output of TI mmWave people-counting
// firmware into frames.
//
// The device emits an unframed byte stream. Each frame starts with the
// 8-byte magic word 01 02 03 04 05 06 07 08, followed by the rest of a
// 52-byte little-endian header and a sequence of TLV records:
//
//	┌──────────────────────────── packetLength ────────────────────────────┐
//	│ magic(8) version(4) len(4) ... numTLVs(2) checksum(2) pad(4) │ TLV … │
//	└──────────────────────── 52 bytes ────────────────────────────┘
//
// Each TLV carries a type code and a declared length that includes its
// own 8-byte sub-header. Known types (point cloud, target list, target
// index, presence indication, target height) are decoded into typed
// payloads; anything else is kept as raw bytes.
//
// Malformed input never panics. Header and frame level problems abort
// the current frame and the next call to Decoder.Next resynchronizes on
// the magic word; TLV and payload level problems only affect the record
// they occur in.
package mmwave
