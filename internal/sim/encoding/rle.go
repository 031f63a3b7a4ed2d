// Package encoding holds the run-length codec used by snapshot chunk
// payloads. Chunks are mostly uniform terrain, so (id, run) pairs beat a
// flat id array by a wide margin even before zstd sees them.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeRLE packs palette ids into base64(uvarint pairs), each pair being
// (block_id, run_len).
func EncodeRLE(ids []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	for i := 0; i < len(ids); {
		id := ids[i]
		run := i + 1
		for run < len(ids) && ids[run] == id {
			run++
		}

		n := binary.PutUvarint(tmp[:], uint64(id))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run-i))
		buf.Write(tmp[:n])

		i = run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE reverses EncodeRLE. maxLen bounds the decoded slice so a
// corrupt run count cannot balloon memory; pass 0 for no bound.
func DecodeRLE(b64 string, maxLen int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint16
	for i := 0; i < len(raw); {
		id, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad block id varint at byte %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad run length varint at byte %d", i)
		}
		i += n
		if id > 0xFFFF {
			return nil, fmt.Errorf("block id %d exceeds palette range", id)
		}
		if run == 0 {
			return nil, fmt.Errorf("zero-length run at byte %d", i)
		}
		if maxLen > 0 && len(out)+int(run) > maxLen {
			return nil, fmt.Errorf("decoded length exceeds %d", maxLen)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(id))
		}
	}
	return out, nil
}
