// Package world holds the chunk-backed block storage the edit layer wraps.
// The world is a flat tilemap: 16x16 chunks of palette ids, with sparse
// per-cell properties for blocks that carry orientation or other state.
package world

import (
	"fmt"
	"sort"
	"sync"

	"voxedit.dev/internal/edit"
	"voxedit.dev/internal/geom"
)

// ErrOutOfBounds reports a position outside the world: nonzero Y or beyond
// the boundary radius. Decorators propagate it verbatim.
type ErrOutOfBounds struct {
	Pos geom.Vec3i
}

func (e ErrOutOfBounds) Error() string {
	return fmt.Sprintf("position %v out of world bounds", e.Pos.ToArray())
}

// Gen configures deterministic worldgen for chunks faulted in on first
// access.
type Gen struct {
	Seed      int64
	BoundaryR int // blocks; 0 = unbounded

	// Palette ids for generated terrain.
	Air   uint16
	Grass uint16
	Dirt  uint16
	Sand  uint16
	Stone uint16
}

// ChunkStore owns the loaded chunks. Safe for concurrent use; the edit
// transport calls it from one goroutine per session.
type ChunkStore struct {
	mu     sync.Mutex
	gen    Gen
	chunks map[ChunkKey]*Chunk
}

func NewChunkStore(gen Gen) *ChunkStore {
	return &ChunkStore{gen: gen, chunks: map[ChunkKey]*Chunk{}}
}

func (s *ChunkStore) inBounds(pos geom.Vec3i) bool {
	if pos.Y != 0 {
		return false
	}
	if s.gen.BoundaryR > 0 {
		if pos.X < -s.gen.BoundaryR || pos.X > s.gen.BoundaryR || pos.Z < -s.gen.BoundaryR || pos.Z > s.gen.BoundaryR {
			return false
		}
	}
	return true
}

// GetBlock implements edit.Extent.
func (s *ChunkStore) GetBlock(pos geom.Vec3i) (edit.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inBounds(pos) {
		return edit.Block{}, ErrOutOfBounds{Pos: pos}
	}
	ch := s.getOrGenChunk(floorDiv(pos.X, ChunkSize), floorDiv(pos.Z, ChunkSize))
	id, props := ch.Get(mod(pos.X, ChunkSize), mod(pos.Z, ChunkSize))

	b := edit.Block{ID: id}
	if len(props) > 0 {
		b.Props = make(map[string]string, len(props))
		for k, v := range props {
			b.Props[k] = v
		}
	}
	return b, nil
}

// GetFullBlock implements edit.Extent. The store keeps no lazily loaded
// extra data, so it resolves the same state as GetBlock.
func (s *ChunkStore) GetFullBlock(pos geom.Vec3i) (edit.Block, error) {
	return s.GetBlock(pos)
}

// SetBlock implements edit.Extent. Reports whether the cell changed.
func (s *ChunkStore) SetBlock(pos geom.Vec3i, b edit.Block) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.inBounds(pos) {
		return false, ErrOutOfBounds{Pos: pos}
	}
	ch := s.getOrGenChunk(floorDiv(pos.X, ChunkSize), floorDiv(pos.Z, ChunkSize))
	return ch.Set(mod(pos.X, ChunkSize), mod(pos.Z, ChunkSize), b.ID, b.Props), nil
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

// Snapshot copies a loaded chunk for persistence; ok is false when the
// chunk was never faulted in.
func (s *ChunkStore) Snapshot(k ChunkKey) (ids []uint16, props map[int]map[string]string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.chunks[k]
	if !ok {
		return nil, nil, false
	}
	ids = append([]uint16(nil), ch.Blocks...)
	props = map[int]map[string]string{}
	for i, pv := range ch.Props {
		cp := make(map[string]string, len(pv))
		for kk, vv := range pv {
			cp[kk] = vv
		}
		props[i] = cp
	}
	return ids, props, true
}

// Restore installs a chunk from a snapshot, replacing whatever is loaded.
func (s *ChunkStore) Restore(k ChunkKey, ids []uint16, props map[int]map[string]string) error {
	if len(ids) != ChunkArea {
		return fmt.Errorf("chunk %v: %d ids, want %d", k, len(ids), ChunkArea)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := &Chunk{
		CX:     k.CX,
		CZ:     k.CZ,
		Blocks: append([]uint16(nil), ids...),
		dirty:  true,
	}
	if len(props) > 0 {
		ch.Props = map[int]map[string]string{}
		for i, pv := range props {
			if i < 0 || i >= ChunkArea {
				return fmt.Errorf("chunk %v: prop cell %d out of range", k, i)
			}
			cp := make(map[string]string, len(pv))
			for kk, vv := range pv {
				cp[kk] = vv
			}
			ch.Props[i] = cp
		}
	}
	_ = ch.Digest()
	s.chunks[k] = ch
	return nil
}

func (s *ChunkStore) getOrGenChunk(cx, cz int) *Chunk {
	k := ChunkKey{CX: cx, CZ: cz}
	if ch, ok := s.chunks[k]; ok {
		return ch
	}
	ch := &Chunk{
		CX:     cx,
		CZ:     cz,
		Blocks: make([]uint16, ChunkArea),
	}
	s.generateChunk(ch)
	ch.dirty = true
	_ = ch.Digest()
	s.chunks[k] = ch
	return ch
}

func (s *ChunkStore) generateChunk(ch *Chunk) {
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			wx := ch.CX*ChunkSize + x
			wz := ch.CZ*ChunkSize + z
			ch.Blocks[ch.index(x, z)] = s.baseBlock(wx, wz)
		}
	}
}

func (s *ChunkStore) baseBlock(x, z int) uint16 {
	n := hash2(s.gen.Seed, x, z)
	switch {
	case n%97 == 0:
		return s.gen.Stone
	case n%13 == 0:
		return s.gen.Sand
	case n%7 == 0:
		return s.gen.Dirt
	default:
		return s.gen.Grass
	}
}
