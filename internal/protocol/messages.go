package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	World           WorldParams    `json:"world"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type WorldParams struct {
	Seed      int64 `json:"seed"`
	BoundaryR int   `json:"boundary_r"`
}

type CatalogDigests struct {
	BlocksDigest  string `json:"blocks_digest"`
	PaletteDigest string `json:"palette_digest"`
}

// Edit operations.
const (
	OpGetBlock       = "get_block"
	OpSetBlock       = "set_block"
	OpSetTransform   = "set_transform"
	OpClearTransform = "clear_transform"
)

// EDIT (client -> server)
type EditMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	EditID          string `json:"edit_id"`
	Op              string `json:"op"`

	Pos   *[3]int    `json:"pos,omitempty"`
	Block *WireBlock `json:"block,omitempty"`

	// Transform steps, applied in list order (first step runs first).
	Transform []TransformStep `json:"transform,omitempty"`
}

// WireBlock names blocks by catalog id rather than palette index so the
// wire format survives palette changes.
type WireBlock struct {
	ID    string            `json:"id"`
	Props map[string]string `json:"props,omitempty"`
}

type TransformStep struct {
	Kind string  `json:"kind"`           // "identity","rotate_x","rotate_y","rotate_z","mirror"
	Deg  float64 `json:"deg,omitempty"`  // rotations
	Axis string  `json:"axis,omitempty"` // mirror: "x","y","z"
}

// RESULT (server -> client)
type ResultMsg struct {
	Type    string     `json:"type"`
	EditID  string     `json:"edit_id"`
	OK      bool       `json:"ok"`
	Changed bool       `json:"changed,omitempty"`
	Block   *WireBlock `json:"block,omitempty"`

	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`
}
