package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/rcliao/agent-state/internal/model"
)

// SQLiteStore persists state snapshots in a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *rand.Rand

	writeMu sync.Mutex
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create db dir")
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS files (
		path               TEXT PRIMARY KEY,
		content            TEXT NOT NULL,
		last_modified      INTEGER NOT NULL,
		prev_content       TEXT,
		prev_last_modified INTEGER
	);

	CREATE TABLE IF NOT EXISTS messages (
		seq     INTEGER PRIMARY KEY AUTOINCREMENT,
		role    TEXT NOT NULL,
		content TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS images (
		key  TEXT PRIMARY KEY,
		kind TEXT NOT NULL CHECK (kind IN ('url', 'base64')),
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS searches (
		key     TEXT PRIMARY KEY,
		results TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by *sql.DB and *sql.Conn.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Save replaces the persisted state with snap in one transaction and
// returns the new snapshot ID.
func (s *SQLiteStore) Save(ctx context.Context, snap model.Snapshot) (string, error) {
	var id string
	err := s.exclusive(ctx, func(conn *sql.Conn) error {
		var err error
		id, err = s.write(ctx, conn, snap)
		return err
	})
	return id, err
}

// Load reads the persisted state. An empty database yields an empty
// snapshot whose Model is "".
func (s *SQLiteStore) Load(ctx context.Context) (model.Snapshot, error) {
	return s.read(ctx, s.db)
}

// Update reads the persisted state, passes it to fn and writes back what fn
// returns. The database write lock is held throughout, so concurrent
// updates from any process apply one at a time. Nothing is written when fn
// fails, and fn's error is returned as is.
func (s *SQLiteStore) Update(ctx context.Context, fn func(model.Snapshot) (model.Snapshot, error)) (string, error) {
	var id string
	err := s.exclusive(ctx, func(conn *sql.Conn) error {
		snap, err := s.read(ctx, conn)
		if err != nil {
			return err
		}
		if snap, err = fn(snap); err != nil {
			return err
		}
		id, err = s.write(ctx, conn, snap)
		return err
	})
	return id, err
}

// Apply runs a mutation of st against the latest persisted state and saves
// the result. st is first restored from the database, so changes made by
// other processes are kept. On failure st is left at the last saved state.
func (s *SQLiteStore) Apply(ctx context.Context, st *State, mutate func() error) error {
	var saved *model.Snapshot
	_, err := s.Update(ctx, func(snap model.Snapshot) (model.Snapshot, error) {
		if err := st.Restore(snap); err != nil {
			return snap, err
		}
		saved = &snap
		if err := mutate(); err != nil {
			return snap, err
		}
		return st.Snapshot(), nil
	})
	if err != nil && saved != nil {
		st.Restore(*saved)
	}
	return err
}

// exclusive runs fn inside a BEGIN IMMEDIATE transaction on one connection.
func (s *SQLiteStore) exclusive(ctx context.Context, fn func(conn *sql.Conn) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, "acquire conn")
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `BEGIN IMMEDIATE`); err != nil {
		return errors.Wrap(err, "begin")
	}
	if err := fn(conn); err != nil {
		conn.ExecContext(context.Background(), `ROLLBACK`)
		return err
	}
	if _, err := conn.ExecContext(ctx, `COMMIT`); err != nil {
		conn.ExecContext(context.Background(), `ROLLBACK`)
		return errors.Wrap(err, "commit")
	}
	return nil
}

func (s *SQLiteStore) write(ctx context.Context, q querier, snap model.Snapshot) (string, error) {
	for _, table := range []string{"files", "messages", "settings", "images", "searches"} {
		if _, err := q.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return "", errors.Wrapf(err, "clear %s", table)
		}
	}

	for _, f := range snap.Files {
		var prevContent sql.NullString
		var prevModified sql.NullInt64
		if f.Previous != nil {
			prevContent = sql.NullString{String: f.Previous.Content, Valid: true}
			prevModified = sql.NullInt64{Int64: f.Previous.LastModified, Valid: true}
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO files (path, content, last_modified, prev_content, prev_last_modified)
			 VALUES (?, ?, ?, ?, ?)`,
			f.Path, f.Current.Content, f.Current.LastModified, prevContent, prevModified)
		if err != nil {
			return "", errors.Wrap(err, "insert file")
		}
	}

	for _, m := range snap.Chat {
		_, err := q.ExecContext(ctx,
			`INSERT INTO messages (role, content) VALUES (?, ?)`, m.Role, m.Content)
		if err != nil {
			return "", errors.Wrap(err, "insert message")
		}
	}

	if snap.Model != "" {
		_, err := q.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES ('model', ?)`, snap.Model)
		if err != nil {
			return "", errors.Wrap(err, "insert model")
		}
	}

	for _, e := range snap.Images {
		img, err := e.Image.Decode()
		if err != nil {
			return "", errors.Wrapf(err, "image %q", e.Key)
		}
		kind, data := "url", ""
		switch v := img.(type) {
		case model.ImageURL:
			data = v.URL
		case model.ImageBase64:
			kind, data = "base64", v.Data
		}
		_, err = q.ExecContext(ctx,
			`INSERT INTO images (key, kind, data) VALUES (?, ?, ?)`, e.Key, kind, data)
		if err != nil {
			return "", errors.Wrap(err, "insert image")
		}
	}

	for _, e := range snap.Searches {
		b, err := json.Marshal(e.Results)
		if err != nil {
			return "", errors.Wrapf(err, "encode search %q", e.Key)
		}
		_, err = q.ExecContext(ctx,
			`INSERT INTO searches (key, results) VALUES (?, ?)`, e.Key, string(b))
		if err != nil {
			return "", errors.Wrap(err, "insert search")
		}
	}

	id := s.newID()
	_, err := q.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('snapshot_id', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, id)
	if err != nil {
		return "", errors.Wrap(err, "record snapshot id")
	}
	return id, nil
}

func (s *SQLiteStore) read(ctx context.Context, q querier) (model.Snapshot, error) {
	snap := model.Snapshot{}

	rows, err := q.QueryContext(ctx,
		`SELECT path, content, last_modified, prev_content, prev_last_modified
		 FROM files ORDER BY path`)
	if err != nil {
		return snap, errors.Wrap(err, "query files")
	}
	for rows.Next() {
		var f model.FileEntry
		var prevContent sql.NullString
		var prevModified sql.NullInt64
		if err := rows.Scan(&f.Path, &f.Current.Content, &f.Current.LastModified, &prevContent, &prevModified); err != nil {
			rows.Close()
			return snap, err
		}
		if prevContent.Valid {
			f.Previous = &model.FileContent{Content: prevContent.String, LastModified: prevModified.Int64}
		}
		snap.Files = append(snap.Files, f)
	}
	rows.Close()

	rows, err = q.QueryContext(ctx, `SELECT role, content FROM messages ORDER BY seq`)
	if err != nil {
		return snap, errors.Wrap(err, "query messages")
	}
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			rows.Close()
			return snap, err
		}
		snap.Chat = append(snap.Chat, m)
	}
	rows.Close()

	err = q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = 'model'`).Scan(&snap.Model)
	if err != nil && err != sql.ErrNoRows {
		return snap, errors.Wrap(err, "query model")
	}

	rows, err = q.QueryContext(ctx, `SELECT key, kind, data FROM images ORDER BY key`)
	if err != nil {
		return snap, errors.Wrap(err, "query images")
	}
	for rows.Next() {
		var key, kind, data string
		if err := rows.Scan(&key, &kind, &data); err != nil {
			rows.Close()
			return snap, err
		}
		var img model.ImageData = model.ImageURL{URL: data}
		if kind == "base64" {
			img = model.ImageBase64{Data: data}
		}
		j, _ := model.EncodeImage(img)
		snap.Images = append(snap.Images, model.ImageEntry{Key: key, Image: j})
	}
	rows.Close()

	rows, err = q.QueryContext(ctx, `SELECT key, results FROM searches ORDER BY key`)
	if err != nil {
		return snap, errors.Wrap(err, "query searches")
	}
	defer rows.Close()
	for rows.Next() {
		var e model.SearchEntry
		var raw string
		if err := rows.Scan(&e.Key, &raw); err != nil {
			return snap, err
		}
		if err := json.Unmarshal([]byte(raw), &e.Results); err != nil {
			return snap, errors.Wrapf(err, "decode search %q", e.Key)
		}
		snap.Searches = append(snap.Searches, e)
	}

	return snap, rows.Err()
}

// SnapshotID returns the ID of the last saved snapshot, or "" if none.
func (s *SQLiteStore) SnapshotID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'snapshot_id'`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return id, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// snapshotTime decodes the save time embedded in a snapshot ID.
func snapshotTime(id string) (time.Time, error) {
	u, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}
