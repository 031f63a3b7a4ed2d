// Package catalogs loads the block catalog: the palette of block kinds and
// their property descriptors, including the directional properties the edit
// layer rewrites under spatial transforms.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"voxedit.dev/internal/edit"
	"voxedit.dev/internal/geom"
)

type Catalogs struct {
	Blocks BlockCatalog
}

type BlockCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]BlockDef
	PaletteDigest string
	DefsDigest    string

	// states is the compiled property table keyed by palette id; only
	// blocks that declare props have an entry.
	states map[uint16]map[string]edit.Property
}

type BlockDef struct {
	ID        string             `json:"id"`
	Solid     bool               `json:"solid"`
	Breakable bool               `json:"breakable"`
	Props     map[string]PropDef `json:"props,omitempty"`
}

type PropDef struct {
	Kind   string         `json:"kind"` // "directional","enum"
	Values []PropValueDef `json:"values"`
}

type PropValueDef struct {
	Name string      `json:"name"`
	Dir  *[3]float64 `json:"dir,omitempty"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadBlocks(filepath.Join(configDir, "blocks.json"), &c.Blocks); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBlocks(path string, out *BlockCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.Defs = map[string]BlockDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("blocks.json: empty id")
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Ensure AIR exists and is palette id 0.
	if _, ok := out.Defs["AIR"]; !ok {
		return fmt.Errorf("blocks.json: missing AIR")
	}
	ids = append([]string{"AIR"}, filterOut(ids, "AIR")...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)

	return out.compileStates()
}

func (b *BlockCatalog) compileStates() error {
	b.states = map[uint16]map[string]edit.Property{}
	for id, def := range b.Defs {
		if len(def.Props) == 0 {
			continue
		}
		props := make(map[string]edit.Property, len(def.Props))
		for name, pd := range def.Props {
			p, err := compileProp(name, pd)
			if err != nil {
				return fmt.Errorf("blocks.json: %s.%s: %w", id, name, err)
			}
			props[name] = p
		}
		b.states[b.Index[id]] = props
	}
	return nil
}

func compileProp(name string, pd PropDef) (edit.Property, error) {
	switch pd.Kind {
	case "directional":
		p := edit.Property{Name: name, Kind: edit.KindDirectional}
		seen := map[string]bool{}
		for _, v := range pd.Values {
			if v.Name == "" {
				return edit.Property{}, fmt.Errorf("value with empty name")
			}
			if seen[v.Name] {
				return edit.Property{}, fmt.Errorf("duplicate value %q", v.Name)
			}
			seen[v.Name] = true
			dv := edit.DirectionalValue{Name: v.Name}
			if v.Dir != nil {
				dv.Dir = &geom.Vec3{X: v.Dir[0], Y: v.Dir[1], Z: v.Dir[2]}
			}
			p.Values = append(p.Values, dv)
		}
		return p, nil
	case "enum":
		p := edit.Property{Name: name, Kind: edit.KindEnum}
		for _, v := range pd.Values {
			if v.Name == "" {
				return edit.Property{}, fmt.Errorf("value with empty name")
			}
			if v.Dir != nil {
				return edit.Property{}, fmt.Errorf("enum value %q carries a direction", v.Name)
			}
			p.Enum = append(p.Enum, v.Name)
		}
		return p, nil
	default:
		return edit.Property{}, fmt.Errorf("unknown property kind %q", pd.Kind)
	}
}

// States implements edit.StateRegistry.
func (b *BlockCatalog) States(id uint16) (map[string]edit.Property, bool) {
	s, ok := b.states[id]
	return s, ok
}

func filterOut(in []string, remove string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == remove {
			continue
		}
		out = append(out, s)
	}
	return out
}
