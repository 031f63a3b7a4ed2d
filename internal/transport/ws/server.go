// Package ws serves the websocket edit API: a HELLO/WELCOME handshake
// followed by request/response EDIT operations. Each session may install
// one spatial transform; while installed, its block reads and writes go
// through a TransformExtent over the shared world storage.
package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voxedit.dev/internal/edit"
	"voxedit.dev/internal/edit/transform"
	"voxedit.dev/internal/geom"
	persistlog "voxedit.dev/internal/persistence/log"
	"voxedit.dev/internal/protocol"
	"voxedit.dev/internal/sim/catalogs"
	"voxedit.dev/internal/sim/tuning"
	"voxedit.dev/internal/sim/world"
)

type Server struct {
	base edit.Extent
	cats *catalogs.Catalogs
	tune tuning.Tuning
	seed int64
	log  *log.Logger

	// onEdit, when set, receives every applied edit (in the session's
	// observed frame) for journaling/indexing.
	onEdit func(persistlog.EditEntry)

	upgrader websocket.Upgrader
}

func NewServer(base edit.Extent, cats *catalogs.Catalogs, tune tuning.Tuning, seed int64, logger *log.Logger) *Server {
	s := &Server{
		base: base,
		cats: cats,
		tune: tune,
		seed: seed,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

// OnEdit installs the applied-edit sink. Must be called before serving.
func (s *Server) OnEdit(fn func(persistlog.EditEntry)) { s.onEdit = fn }

// session is the per-connection state: its id and its current view of the
// world (the base extent, or a TransformExtent while one is installed).
type session struct {
	id  string
	ext edit.Extent
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if s.tune.WS.ReadLimitBytes > 0 {
			conn.SetReadLimit(int64(s.tune.WS.ReadLimitBytes))
		}

		sess := s.handshake(conn)
		if sess == nil {
			return
		}
		s.log.Printf("session %s connected from %s", sess.id, r.RemoteAddr)

		for {
			_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout()))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeEdit {
				continue
			}
			var req protocol.EditMsg
			if err := json.Unmarshal(msg, &req); err != nil {
				continue
			}
			if req.ProtocolVersion != protocol.Version {
				s.writeJSON(conn, errorResult(req.EditID, protocol.ErrProtoBadRequest, "bad protocol_version"))
				continue
			}
			s.writeJSON(conn, s.handleEdit(sess, req))
		}

		s.log.Printf("session %s disconnected", sess.id)
	}
}

func (s *Server) handshake(conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}

	sess := &session{id: uuid.NewString(), ext: s.base}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		World: protocol.WorldParams{
			Seed:      s.seed,
			BoundaryR: s.tune.WorldBoundaryR,
		},
		Catalogs: protocol.CatalogDigests{
			BlocksDigest:  s.cats.Blocks.DefsDigest,
			PaletteDigest: s.cats.Blocks.PaletteDigest,
		},
	}
	if !s.writeJSON(conn, welcome) {
		return nil
	}
	return sess
}

func (s *Server) handleEdit(sess *session, req protocol.EditMsg) protocol.ResultMsg {
	switch req.Op {
	case protocol.OpGetBlock:
		return s.handleGetBlock(sess, req)
	case protocol.OpSetBlock:
		return s.handleSetBlock(sess, req)
	case protocol.OpSetTransform:
		tr, err := buildTransform(req.Transform)
		if err != nil {
			return errorResult(req.EditID, protocol.ErrBadTransform, err.Error())
		}
		sess.ext = edit.NewTransformExtent(s.base, &s.cats.Blocks, tr)
		return okResult(req.EditID)
	case protocol.OpClearTransform:
		sess.ext = s.base
		return okResult(req.EditID)
	default:
		return errorResult(req.EditID, protocol.ErrBadRequest, fmt.Sprintf("unknown op %q", req.Op))
	}
}

func (s *Server) handleGetBlock(sess *session, req protocol.EditMsg) protocol.ResultMsg {
	if req.Pos == nil {
		return errorResult(req.EditID, protocol.ErrBadRequest, "missing pos")
	}
	pos := geom.Vec3i{X: req.Pos[0], Y: req.Pos[1], Z: req.Pos[2]}

	b, err := sess.ext.GetBlock(pos)
	if err != nil {
		return storageError(req.EditID, err)
	}

	res := okResult(req.EditID)
	res.Block = &protocol.WireBlock{ID: s.blockName(b.ID), Props: b.Props}
	return res
}

func (s *Server) handleSetBlock(sess *session, req protocol.EditMsg) protocol.ResultMsg {
	if req.Pos == nil || req.Block == nil {
		return errorResult(req.EditID, protocol.ErrBadRequest, "missing pos or block")
	}
	id, ok := s.cats.Blocks.Index[req.Block.ID]
	if !ok {
		return errorResult(req.EditID, protocol.ErrUnknownBlock, fmt.Sprintf("unknown block %q", req.Block.ID))
	}
	pos := geom.Vec3i{X: req.Pos[0], Y: req.Pos[1], Z: req.Pos[2]}

	changed, err := sess.ext.SetBlock(pos, edit.Block{ID: id, Props: req.Block.Props})
	if err != nil {
		return storageError(req.EditID, err)
	}

	if s.onEdit != nil {
		s.onEdit(persistlog.EditEntry{
			At:        time.Now().UTC(),
			SessionID: sess.id,
			EditID:    req.EditID,
			Op:        req.Op,
			Pos:       pos.ToArray(),
			BlockID:   req.Block.ID,
			Props:     req.Block.Props,
			Changed:   changed,
		})
	}

	res := okResult(req.EditID)
	res.Changed = changed
	return res
}

func (s *Server) blockName(id uint16) string {
	if int(id) < len(s.cats.Blocks.Palette) {
		return s.cats.Blocks.Palette[id]
	}
	return fmt.Sprintf("#%d", id)
}

// buildTransform folds wire steps into one affine transform. Steps apply
// in list order: the first step acts on the point first.
func buildTransform(steps []protocol.TransformStep) (transform.Transform, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("empty transform")
	}
	total := transform.Identity()
	for _, st := range steps {
		var a transform.Affine
		switch st.Kind {
		case "identity":
			a = transform.Identity()
		case "rotate_x":
			a = transform.RotateX(st.Deg)
		case "rotate_y":
			a = transform.RotateY(st.Deg)
		case "rotate_z":
			a = transform.RotateZ(st.Deg)
		case "mirror":
			switch st.Axis {
			case "x":
				a = transform.Scale(-1, 1, 1)
			case "y":
				a = transform.Scale(1, -1, 1)
			case "z":
				a = transform.Scale(1, 1, -1)
			default:
				return nil, fmt.Errorf("mirror needs axis x, y or z")
			}
		default:
			return nil, fmt.Errorf("unknown transform kind %q", st.Kind)
		}
		total = a.Combine(total)
	}
	return total, nil
}

func storageError(editID string, err error) protocol.ResultMsg {
	code := protocol.ErrInternal
	if _, ok := err.(world.ErrOutOfBounds); ok {
		code = protocol.ErrOutOfBounds
	}
	return errorResult(editID, code, err.Error())
}

func okResult(editID string) protocol.ResultMsg {
	return protocol.ResultMsg{Type: protocol.TypeResult, EditID: editID, OK: true}
}

func errorResult(editID, code, msg string) protocol.ResultMsg {
	return protocol.ResultMsg{Type: protocol.TypeResult, EditID: editID, OK: false, ErrorCode: code, Error: msg}
}

func (s *Server) writeJSON(conn *websocket.Conn, v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout()))
	return conn.WriteMessage(websocket.TextMessage, b) == nil
}

func (s *Server) readTimeout() time.Duration {
	if s.tune.WS.ReadTimeoutSec > 0 {
		return time.Duration(s.tune.WS.ReadTimeoutSec) * time.Second
	}
	return 60 * time.Second
}

func (s *Server) writeTimeout() time.Duration {
	if s.tune.WS.WriteTimeoutSec > 0 {
		return time.Duration(s.tune.WS.WriteTimeoutSec) * time.Second
	}
	return 5 * time.Second
}
