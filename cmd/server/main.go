package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"voxedit.dev/internal/persistence/indexdb"
	persistlog "voxedit.dev/internal/persistence/log"
	"voxedit.dev/internal/persistence/snapshot"
	"voxedit.dev/internal/sim/catalogs"
	"voxedit.dev/internal/sim/encoding"
	"voxedit.dev/internal/sim/tuning"
	"voxedit.dev/internal/sim/world"
	"voxedit.dev/internal/transport/observer"
	"voxedit.dev/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 1337, "world seed (used only when starting a fresh world)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite read-model index (edits + catalogs + snapshot metadata)")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)
	snapDir := filepath.Join(worldDir, "snapshots")
	_ = os.MkdirAll(snapDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = snapshot.Latest(snapDir)
	}

	worldSeed := *seed
	boundaryR := tune.WorldBoundaryR
	var resumed *snapshot.SnapshotV1
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot %s: %v", snapshotToLoad, err)
		}
		if snap.BlocksDigest != cats.Blocks.DefsDigest {
			logger.Fatalf("snapshot %s was written against a different block catalog (digest %s, have %s)",
				snapshotToLoad, snap.BlocksDigest, cats.Blocks.DefsDigest)
		}
		worldSeed = snap.Seed
		boundaryR = snap.BoundaryR
		resumed = &snap
	}

	store := world.NewChunkStore(world.Gen{
		Seed:      worldSeed,
		BoundaryR: boundaryR,
		Air:       cats.Blocks.Index["AIR"],
		Grass:     cats.Blocks.Index["GRASS"],
		Dirt:      cats.Blocks.Index["DIRT"],
		Sand:      cats.Blocks.Index["SAND"],
		Stone:     cats.Blocks.Index["STONE"],
	})

	var editCount atomic.Uint64
	if resumed != nil {
		for _, ch := range resumed.Chunks {
			ids, err := encoding.DecodeRLE(ch.BlocksRLE, world.ChunkArea)
			if err != nil {
				logger.Fatalf("decode chunk (%d,%d): %v", ch.CX, ch.CZ, err)
			}
			props := make(map[int]map[string]string, len(ch.Props))
			for _, cp := range ch.Props {
				props[cp.Cell] = cp.Props
			}
			if err := store.Restore(world.ChunkKey{CX: ch.CX, CZ: ch.CZ}, ids, props); err != nil {
				logger.Fatalf("restore chunk (%d,%d): %v", ch.CX, ch.CZ, err)
			}
		}
		editCount.Store(resumed.Header.Edits)
		logger.Printf("resumed world %s from %s (%d chunks, %d edits)",
			*worldID, snapshotToLoad, len(resumed.Chunks), resumed.Header.Edits)
	} else {
		logger.Printf("fresh world %s (seed=%d boundary_r=%d)", *worldID, worldSeed, boundaryR)
	}

	journal := persistlog.NewEditJournal(worldDir)
	defer journal.Close()

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats); err != nil {
			logger.Printf("index catalogs: %v", err)
		}
		_ = idx.SetMeta("world_id", *worldID)
		_ = idx.SetMeta("seed", fmt.Sprintf("%d", worldSeed))
	}

	writeSnap := func() {
		snap := buildSnapshot(*worldID, store, cats, worldSeed, boundaryR, editCount.Load())
		path := filepath.Join(snapDir, snapshot.FileName(snap.Header.Edits))
		if err := snapshot.WriteSnapshot(path, snap); err != nil {
			logger.Printf("write snapshot: %v", err)
			return
		}
		if idx != nil {
			idx.RecordSnapshot(path, snap)
		}
		logger.Printf("snapshot written: %s (%d chunks)", path, len(snap.Chunks))
	}

	// Periodic snapshots run off the session goroutines; a pending trigger
	// coalesces with any already queued one.
	snapCh := make(chan struct{}, 1)
	go func() {
		for range snapCh {
			writeSnap()
		}
	}()

	obs := observer.NewServer(logger)

	server := ws.NewServer(store, cats, tune, worldSeed, logger)
	server.OnEdit(func(e persistlog.EditEntry) {
		if err := journal.Write(e); err != nil {
			logger.Printf("journal write: %v", err)
		}
		if idx != nil {
			if err := idx.WriteEdit(e); err != nil {
				logger.Printf("index write: %v", err)
			}
		}
		obs.Publish(e)
		n := editCount.Add(1)
		if tune.SnapshotEveryEdits > 0 && n%uint64(tune.SnapshotEveryEdits) == 0 {
			select {
			case snapCh <- struct{}{}:
			default:
			}
		}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", server.Handler())
	mux.HandleFunc("/v1/observe", obs.WSHandler())

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx := signalContext()
	go func() {
		<-ctx.Done()
		logger.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Printf("listening on %s", *addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("serve: %v", err)
	}

	// Final snapshot so a restart does not replay the whole journal.
	writeSnap()
}

func buildSnapshot(worldID string, store *world.ChunkStore, cats *catalogs.Catalogs, seed int64, boundaryR int, edits uint64) snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header:        snapshot.Header{Version: 1, WorldID: worldID, Edits: edits},
		Seed:          seed,
		BoundaryR:     boundaryR,
		BlocksDigest:  cats.Blocks.DefsDigest,
		PaletteDigest: cats.Blocks.PaletteDigest,
	}
	for _, k := range store.LoadedChunkKeys() {
		ids, props, ok := store.Snapshot(k)
		if !ok {
			continue
		}
		ch := snapshot.ChunkV1{CX: k.CX, CZ: k.CZ, BlocksRLE: encoding.EncodeRLE(ids)}
		for cell, p := range props {
			ch.Props = append(ch.Props, snapshot.CellPropsV1{Cell: cell, Props: p})
		}
		sort.Slice(ch.Props, func(i, j int) bool { return ch.Props[i].Cell < ch.Props[j].Cell })
		snap.Chunks = append(snap.Chunks, ch)
	}
	return snap
}

func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx
}
