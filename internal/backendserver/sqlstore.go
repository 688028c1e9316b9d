package backendserver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"p2p-social/internal/message"
)

type sqlStore struct {
	db *sql.DB
}

// NewSQLStore returns a Store backed by PostgreSQL. Queries use pgx-style
// positional placeholders.
func NewSQLStore(db *sql.DB) Store {
	return &sqlStore{db: db}
}

// Migrate creates the tables the SQL store needs.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS peers (
			peer_id TEXT PRIMARY KEY,
			multiaddr TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS friend_requests (
			to_peer TEXT NOT NULL,
			from_peer TEXT NOT NULL,
			from_multiaddr TEXT NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (to_peer, from_peer)
		)`,
		`CREATE TABLE IF NOT EXISTS friendships (
			peer_id TEXT NOT NULL,
			friend_id TEXT NOT NULL,
			PRIMARY KEY (peer_id, friend_id)
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id TEXT PRIMARY KEY,
			author TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			edited_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS direct_messages (
			id TEXT PRIMARY KEY,
			from_peer TEXT NOT NULL,
			to_peer TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			read BOOLEAN NOT NULL DEFAULT FALSE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *sqlStore) CreatePeer(ctx context.Context, info message.MyInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO peers (peer_id, multiaddr) VALUES ($1, $2) ON CONFLICT (peer_id) DO NOTHING`,
		string(info.PeerID), info.Multiaddr)
	return err
}

func (s *sqlStore) AddRequest(ctx context.Context, to message.PeerID, req message.FriendRequest) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO friend_requests (to_peer, from_peer, from_multiaddr, message) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
		string(to), string(req.FromPeerID), req.FromMultiaddr, req.Message)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *sqlStore) RemoveRequest(ctx context.Context, to, from message.PeerID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM friend_requests WHERE to_peer=$1 AND from_peer=$2`, string(to), string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *sqlStore) InboundRequests(ctx context.Context, peer message.PeerID) ([]message.FriendRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_peer, from_multiaddr, message FROM friend_requests WHERE to_peer=$1 ORDER BY from_peer`,
		string(peer))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []message.FriendRequest
	for rows.Next() {
		var req message.FriendRequest
		var from string
		if err := rows.Scan(&from, &req.FromMultiaddr, &req.Message); err != nil {
			return nil, err
		}
		req.FromPeerID = message.PeerID(from)
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *sqlStore) AddFriendship(ctx context.Context, a, b message.PeerID) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO friendships (peer_id, friend_id) VALUES ($1, $2), ($2, $1) ON CONFLICT DO NOTHING`,
		string(a), string(b))
	return err
}

func (s *sqlStore) Friends(ctx context.Context, peer message.PeerID) ([]message.PeerID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT friend_id FROM friendships WHERE peer_id=$1 ORDER BY friend_id`, string(peer))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []message.PeerID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, message.PeerID(id))
	}
	return out, rows.Err()
}

func (s *sqlStore) AddPost(ctx context.Context, post message.Post) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (id, author, content, created_at, edited_at) VALUES ($1, $2, $3, $4, $5)`,
		post.ID, string(post.Author), post.Content, post.CreatedAt, post.EditedAt)
	return err
}

func (s *sqlStore) Feed(ctx context.Context, peer message.PeerID) ([]message.Post, error) {
	return s.queryPosts(ctx, `
		SELECT id, author, content, created_at, edited_at
		FROM posts
		WHERE author=$1 OR author IN (SELECT friend_id FROM friendships WHERE peer_id=$1)
		ORDER BY COALESCE(edited_at, created_at)
	`, peer)
}

func (s *sqlStore) Board(ctx context.Context, author message.PeerID) ([]message.Post, error) {
	return s.queryPosts(ctx, `
		SELECT id, author, content, created_at, edited_at
		FROM posts
		WHERE author=$1
		ORDER BY COALESCE(edited_at, created_at)
	`, author)
}

func (s *sqlStore) queryPosts(ctx context.Context, query string, peer message.PeerID) ([]message.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, string(peer))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []message.Post
	for rows.Next() {
		var p message.Post
		var author string
		var edited sql.NullTime
		if err := rows.Scan(&p.ID, &author, &p.Content, &p.CreatedAt, &edited); err != nil {
			return nil, err
		}
		p.Author = message.PeerID(author)
		if edited.Valid {
			t := edited.Time
			p.EditedAt = &t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *sqlStore) AddDirectMessage(ctx context.Context, dm message.DirectMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO direct_messages (id, from_peer, to_peer, content, created_at, read) VALUES ($1, $2, $3, $4, $5, $6)`,
		dm.ID, string(dm.From), string(dm.To), dm.Content, dm.CreatedAt, dm.Read)
	return err
}

func (s *sqlStore) Conversation(ctx context.Context, a, b message.PeerID) ([]message.DirectMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_peer, to_peer, content, created_at, read
		FROM direct_messages
		WHERE (from_peer=$1 AND to_peer=$2) OR (from_peer=$2 AND to_peer=$1)
		ORDER BY created_at
	`, string(a), string(b))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []message.DirectMessage
	for rows.Next() {
		var dm message.DirectMessage
		var from, to string
		var created time.Time
		if err := rows.Scan(&dm.ID, &from, &to, &dm.Content, &created, &dm.Read); err != nil {
			return nil, err
		}
		dm.From, dm.To, dm.CreatedAt = message.PeerID(from), message.PeerID(to), created
		out = append(out, dm)
	}
	return out, rows.Err()
}

func (s *sqlStore) MarkRead(ctx context.Context, reader, partner message.PeerID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE direct_messages SET read=TRUE WHERE to_peer=$1 AND from_peer=$2 AND read=FALSE`,
		string(reader), string(partner))
	return err
}
