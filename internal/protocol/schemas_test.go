package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"voxedit.dev/internal/protocol"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

func validate(t *testing.T, s *jsonschema.Schema, v any) {
	t.Helper()
	if err := s.Validate(v); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSchemas_ValidateSamples(t *testing.T) {
	helloSchema := compileSchema(t, "hello.schema.json")
	welcomeSchema := compileSchema(t, "welcome.schema.json")
	editSchema := compileSchema(t, "edit.schema.json")
	resultSchema := compileSchema(t, "result.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"cli"
	}`), &hello)
	validate(t, helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "session_id":"S1",
	  "world":{"seed":1337,"boundary_r":4000},
	  "catalogs":{"blocks_digest":"deadbeef","palette_digest":"deadbeef"}
	}`), &welcome)
	validate(t, welcomeSchema, welcome)

	var edit any
	_ = json.Unmarshal([]byte(`{
	  "type":"EDIT",
	  "protocol_version":"1.0",
	  "edit_id":"E1",
	  "op":"set_block",
	  "pos":[4,0,-7],
	  "block":{"id":"LANTERN","props":{"facing":"north","lit":"true"}}
	}`), &edit)
	validate(t, editSchema, edit)

	var setTransform any
	_ = json.Unmarshal([]byte(`{
	  "type":"EDIT",
	  "protocol_version":"1.0",
	  "edit_id":"E2",
	  "op":"set_transform",
	  "transform":[{"kind":"rotate_y","deg":90},{"kind":"mirror","axis":"x"}]
	}`), &setTransform)
	validate(t, editSchema, setTransform)

	var result any
	_ = json.Unmarshal([]byte(`{
	  "type":"RESULT",
	  "edit_id":"E1",
	  "ok":true,
	  "changed":true,
	  "block":{"id":"LANTERN","props":{"facing":"east"}}
	}`), &result)
	validate(t, resultSchema, result)

	var failure any
	_ = json.Unmarshal([]byte(`{
	  "type":"RESULT",
	  "edit_id":"E3",
	  "ok":false,
	  "error_code":"E_OUT_OF_BOUNDS",
	  "error":"position [9999 0 0] out of world bounds"
	}`), &failure)
	validate(t, resultSchema, failure)
}

// The Go message types must marshal into schema-valid JSON.
func TestSchemas_ValidateMarshalledMessages(t *testing.T) {
	welcomeSchema := compileSchema(t, "welcome.schema.json")
	resultSchema := compileSchema(t, "result.schema.json")

	roundTrip := func(v any) any {
		t.Helper()
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var out any
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return out
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       "S1",
		World:           protocol.WorldParams{Seed: 7, BoundaryR: 100},
		Catalogs:        protocol.CatalogDigests{BlocksDigest: "aa", PaletteDigest: "bb"},
	}
	validate(t, welcomeSchema, roundTrip(welcome))

	result := protocol.ResultMsg{
		Type:   protocol.TypeResult,
		EditID: "E9",
		OK:     true,
		Block:  &protocol.WireBlock{ID: "SIGN", Props: map[string]string{"facing": "west"}},
	}
	validate(t, resultSchema, roundTrip(result))
}
