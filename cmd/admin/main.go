// Admin is an offline inspector for a world's on-disk state: the data
// directory layout, the sqlite read-model index, and snapshot files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"voxedit.dev/internal/persistence/snapshot"
	"voxedit.dev/internal/sim/encoding"
	"voxedit.dev/internal/sim/world"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "snap":
			snapCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

func snapCmd(args []string) {
	fs := flag.NewFlagSet("snap", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "world_1", "world id")
	snapPath := fs.String("snapshot", "", "snapshot path (default: latest)")
	_ = fs.Parse(args)

	path := *snapPath
	if path == "" {
		path = snapshot.Latest(filepath.Join(*dataDir, "worlds", *worldID, "snapshots"))
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "no snapshot found")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	fmt.Printf("snapshot v%d world=%s edits=%d seed=%d boundary_r=%d chunks=%d\n",
		snap.Header.Version, snap.Header.WorldID, snap.Header.Edits, snap.Seed, snap.BoundaryR, len(snap.Chunks))
	fmt.Printf("blocks_digest=%s palette_digest=%s\n", snap.BlocksDigest, snap.PaletteDigest)
	for _, ch := range snap.Chunks {
		cells := 0
		if ids, err := encoding.DecodeRLE(ch.BlocksRLE, world.ChunkArea); err == nil {
			cells = len(ids)
		}
		fmt.Printf("  chunk (%d,%d): %d cells, %d with props\n", ch.CX, ch.CZ, cells, len(ch.Props))
	}
}
