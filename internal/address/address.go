package address

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"p2p-social/internal/message"
)

// ErrInvalid is returned for addresses that do not match
// /ip4/A.B.C.D/tcp/PORT/p2p/PEERID.
var ErrInvalid = errors.New("invalid peer address")

var pattern = regexp.MustCompile(`^/ip4/(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})/tcp/(\d{1,5})/p2p/([A-Za-z0-9]+)$`)

// Address is a validated connection address split at /p2p/.
type Address struct {
	Multiaddr string
	PeerID    message.PeerID
}

func (a Address) String() string {
	return a.Multiaddr + "/p2p/" + string(a.PeerID)
}

// Parse validates raw and decomposes it into its multiaddr and peer id.
func Parse(raw string) (Address, error) {
	m := pattern.FindStringSubmatch(raw)
	if m == nil {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	for _, octet := range m[1:5] {
		v, err := strconv.Atoi(octet)
		if err != nil || v > 255 {
			return Address{}, fmt.Errorf("%w: octet %s out of range", ErrInvalid, octet)
		}
	}
	port, err := strconv.Atoi(m[5])
	if err != nil || port < 1 {
		return Address{}, fmt.Errorf("%w: port %s out of range", ErrInvalid, m[5])
	}
	idx := len(raw) - len(m[6]) - len("/p2p/")
	return Address{Multiaddr: raw[:idx], PeerID: message.PeerID(m[6])}, nil
}

// Valid reports whether raw is an acceptable address.
func Valid(raw string) bool {
	_, err := Parse(raw)
	return err == nil
}
