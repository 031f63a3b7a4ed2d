package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// dbCmd queries the read-model index. Queries: snapshots (default),
// edits, meta.
func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	session := fs.String("session", "", "session_id filter (edits)")
	op := fs.String("op", "", "op filter (edits)")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index.db")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	switch q {
	case "snapshots":
		querySnapshots(db, *limit)
	case "edits":
		queryEdits(db, *limit, *session, *op)
	case "meta":
		queryMeta(db)
	default:
		fmt.Fprintf(os.Stderr, "unknown query %q (want snapshots, edits, or meta)\n", q)
		os.Exit(2)
	}
}

func querySnapshots(db *sql.DB, limit int) {
	rows, err := db.Query(`SELECT edits, path, seed, chunks FROM snapshots ORDER BY edits DESC LIMIT ?`, limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	defer rows.Close()
	for rows.Next() {
		var edits uint64
		var path string
		var seed int64
		var chunks int
		if err := rows.Scan(&edits, &path, &seed, &chunks); err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
		fmt.Printf("edits=%d seed=%d chunks=%d %s\n", edits, seed, chunks, path)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}

func queryEdits(db *sql.DB, limit int, session, op string) {
	q := `SELECT seq, at, session_id, edit_id, op, x, y, z, block_id, props_json, changed FROM edits`
	var conds []string
	var binds []any
	if session != "" {
		conds = append(conds, "session_id = ?")
		binds = append(binds, session)
	}
	if op != "" {
		conds = append(conds, "op = ?")
		binds = append(binds, op)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY seq DESC LIMIT ?"
	binds = append(binds, limit)

	rows, err := db.Query(q, binds...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	defer rows.Close()
	for rows.Next() {
		var seq int64
		var at, sid, eid, eop, blockID, propsJSON string
		var x, y, z int
		var changed bool
		if err := rows.Scan(&seq, &at, &sid, &eid, &eop, &x, &y, &z, &blockID, &propsJSON, &changed); err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
		fmt.Printf("#%d %s %s %s %s pos=(%d,%d,%d) block=%s props=%s changed=%v\n",
			seq, at, sid, eid, eop, x, y, z, blockID, propsJSON, changed)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}

func queryMeta(db *sql.DB) {
	rows, err := db.Query(`SELECT key, value FROM meta ORDER BY key`)
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
		fmt.Printf("%s=%s\n", k, v)
	}
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}
