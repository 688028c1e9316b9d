package backendserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"p2p-social/internal/authutil"
	"p2p-social/internal/message"
)

type sessionRequest struct {
	Token string `json:"token"`
}

type healthPayload struct {
	Status    string `json:"status"`
	DBEnabled bool   `json:"dbEnabled"`
	Message   string `json:"message"`
}

func (s *Server) writeHealthJSON(w http.ResponseWriter, status int, dbEnabled bool, message string) {
	state := "ok"
	if status >= 400 {
		state = "error"
	}
	payload := healthPayload{
		Status:    state,
		DBEnabled: dbEnabled,
		Message:   message,
	}
	bytes, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("health marshal error")
		http.Error(w, "health unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(bytes); err != nil {
		s.logger.Error().Err(err).Msg("health write error")
	}
}

func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.db == nil {
			s.writeHealthJSON(w, http.StatusOK, false, "stateless mode: set DATABASE_URL to enable persistence")
			return
		}
		if err := s.db.PingContext(r.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("health ping failed")
			s.writeHealthJSON(w, http.StatusServiceUnavailable, true, err.Error())
			return
		}
		s.writeHealthJSON(w, http.StatusOK, true, "ok")
	}
}

func (s *Server) relaysHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.relays.List())
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("write json")
	}
}

// sessionHandler issues a token for a fresh identity, or re-issues one for the
// identity carried by a still valid token.
func (s *Server) sessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		kind := "new"
		var info message.MyInfo
		if req.Token != "" {
			existing, err := authutil.ValidateToken(req.Token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			info, kind = existing, "renewed"
		} else {
			info = s.newIdentity()
		}
		if err := s.store.CreatePeer(r.Context(), info); err != nil {
			s.logger.Error().Err(err).Str("peer", info.PeerID.String()).Msg("create peer failed")
			http.Error(w, "store failed", http.StatusInternalServerError)
			return
		}
		token, err := authutil.IssueToken(info.PeerID, info.Multiaddr)
		if err != nil {
			http.Error(w, "token error", http.StatusInternalServerError)
			return
		}
		incSessionIssued(kind)
		s.writeJSON(w, http.StatusOK, message.Session{Token: token, PeerID: info.PeerID, Multiaddr: info.Multiaddr})
	}
}

func (s *Server) wsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = parseTokenFromHeader(r.Header.Get("Authorization"))
		}
		info, err := authutil.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sess := newSession(conn, info)
		go sess.writeLoop()
		s.attach(ctx, sess)
		defer s.detach(sess)
		s.readLoop(ctx, sess)
	}
}

func (s *Server) attach(ctx context.Context, sess *session) {
	peer := sess.info.PeerID
	first := s.hub.add(sess)
	s.logger.Info().Str("peer", peer.String()).Bool("first", first).Msg("session opened")
	friends, err := s.store.Friends(ctx, peer)
	if err != nil {
		s.logger.Error().Err(err).Str("peer", peer.String()).Msg("friend lookup failed")
		return
	}
	for _, f := range friends {
		if !s.hub.Online(f) {
			continue
		}
		if frame, err := message.EncodeEvent(message.PeerConnected{Peer: f}); err == nil {
			sess.enqueue(frame)
		}
		if first {
			s.hub.Publish(f, message.PeerConnected{Peer: peer})
		}
	}
}

func (s *Server) detach(sess *session) {
	sess.close()
	peer := sess.info.PeerID
	last := s.hub.remove(sess)
	s.logger.Info().Str("peer", peer.String()).Bool("last", last).Msg("session closed")
	if !last {
		return
	}
	friends, err := s.store.Friends(context.Background(), peer)
	if err != nil {
		s.logger.Error().Err(err).Str("peer", peer.String()).Msg("friend lookup failed")
		return
	}
	for _, f := range friends {
		s.hub.Publish(f, message.PeerDisconnected{Peer: peer})
	}
}

func (s *Server) readLoop(ctx context.Context, sess *session) {
	for {
		var f message.Frame
		if err := sess.conn.ReadJSON(&f); err != nil {
			return
		}
		if f.Command == "" {
			continue
		}
		if !sess.enqueue(s.handle(ctx, sess, f)) {
			return
		}
	}
}

func parseTokenFromHeader(h string) string {
	parts := strings.SplitN(h, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}
