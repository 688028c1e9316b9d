package authutil

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"p2p-social/internal/message"
)

const tokenTTL = 24 * time.Hour

var (
	secretOnce sync.Once
	secretKey  []byte
)

// getSecret retrieves the secret key from environment variable or defaults for development.
func getSecret() []byte {
	secretOnce.Do(func() {
		key := os.Getenv("P2P_AUTH_SECRET")
		if key == "" {
			key = "dev-secret-change-me"
		}
		secretKey = []byte(key)
	})
	return secretKey
}

// IssueToken returns a signed session token bound to peer.
func IssueToken(peer message.PeerID, multiaddr string) (string, error) {
	if peer == "" {
		return "", errors.New("empty peer id")
	}
	claims := jwt.MapClaims{
		"peer_id":   string(peer),
		"multiaddr": multiaddr,
		"exp":       time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getSecret())
}

// ValidateToken parses token string and validates signature, returning the
// identity it was issued for.
func ValidateToken(tokenStr string) (message.MyInfo, error) {
	if tokenStr == "" {
		return message.MyInfo{}, errors.New("empty token")
	}
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return getSecret(), nil
	})
	if err != nil {
		return message.MyInfo{}, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		peer, _ := claims["peer_id"].(string)
		addr, _ := claims["multiaddr"].(string)
		if peer != "" {
			return message.MyInfo{PeerID: message.PeerID(peer), Multiaddr: addr}, nil
		}
	}
	return message.MyInfo{}, errors.New("invalid token claims")
}
