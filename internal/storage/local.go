package storage

import (
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"p2p-social/internal/message"
)

const (
	nicknameBucket = "nicknames"
	blockedBucket  = "blocked"
)

// LocalStore persists the nickname map and the block list in BoltDB so they
// survive restarts. Nothing here is ever sent to the backend.
type LocalStore struct {
	db *bbolt.DB
}

func OpenLocalStore(path string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{nicknameBucket, blockedBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &LocalStore{db: db}, nil
}

func (s *LocalStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *LocalStore) put(bucket string, key, value []byte) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put(key, value)
	})
}

func (s *LocalStore) delete(bucket string, key []byte) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Delete(key)
	})
}

func (s *LocalStore) PutNickname(peer message.PeerID, name string) error {
	return s.put(nicknameBucket, []byte(peer), []byte(name))
}

func (s *LocalStore) DeleteNickname(peer message.PeerID) error {
	return s.delete(nicknameBucket, []byte(peer))
}

func (s *LocalStore) PutBlocked(peer message.PeerID) error {
	return s.put(blockedBucket, []byte(peer), []byte(time.Now().UTC().Format(time.RFC3339)))
}

func (s *LocalStore) DeleteBlocked(peer message.PeerID) error {
	return s.delete(blockedBucket, []byte(peer))
}

// Nicknames returns every stored nickname.
func (s *LocalStore) Nicknames() (map[message.PeerID]string, error) {
	out := make(map[message.PeerID]string)
	if s == nil || s.db == nil {
		return out, nil
	}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(nicknameBucket)).ForEach(func(k, v []byte) error {
			out[message.PeerID(k)] = string(v)
			return nil
		})
	})
	return out, err
}

// Blocked returns every stored blocked peer in key order.
func (s *LocalStore) Blocked() ([]message.PeerID, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var out []message.PeerID
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(blockedBucket)).ForEach(func(k, _ []byte) error {
			out = append(out, message.PeerID(k))
			return nil
		})
	})
	return out, err
}
