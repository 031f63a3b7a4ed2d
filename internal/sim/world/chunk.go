package world

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
)

const (
	ChunkSize = 16
	ChunkArea = ChunkSize * ChunkSize
)

type ChunkKey struct {
	CX int
	CZ int
}

// Chunk is a 16x16 column of the flat world: dense palette ids plus a
// sparse map of per-cell block properties (orientation metadata).
type Chunk struct {
	CX, CZ int
	Blocks []uint16                  // len = ChunkArea
	Props  map[int]map[string]string // cell index -> property values

	dirty bool
	hash  [32]byte
}

func (c *Chunk) index(x, z int) int {
	// x fastest, then z
	return x + z*ChunkSize
}

func (c *Chunk) Get(x, z int) (uint16, map[string]string) {
	i := c.index(x, z)
	return c.Blocks[i], c.Props[i]
}

func (c *Chunk) Set(x, z int, b uint16, props map[string]string) bool {
	i := c.index(x, z)
	if c.Blocks[i] == b && propsEqual(c.Props[i], props) {
		return false
	}
	c.Blocks[i] = b
	if len(props) == 0 {
		delete(c.Props, i)
	} else {
		if c.Props == nil {
			c.Props = map[int]map[string]string{}
		}
		cp := make(map[string]string, len(props))
		for k, v := range props {
			cp[k] = v
		}
		c.Props[i] = cp
	}
	c.dirty = true
	return true
}

func propsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// Digest hashes ids and properties deterministically: props are folded in
// by ascending cell index and sorted key.
func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}

		cells := make([]int, 0, len(c.Props))
		for i := range c.Props {
			cells = append(cells, i)
		}
		sort.Ints(cells)
		for _, i := range cells {
			var idx [4]byte
			binary.LittleEndian.PutUint32(idx[:], uint32(i))
			h.Write(idx[:])

			keys := make([]string, 0, len(c.Props[i]))
			for k := range c.Props[i] {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				h.Write([]byte(k))
				h.Write([]byte{0})
				h.Write([]byte(c.Props[i][k]))
				h.Write([]byte{0})
			}
		}

		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}
