package message

// Command names carried in request frames.
const (
	CmdStartSession             = "startSession"
	CmdGetMyInfo                = "getMyInfo"
	CmdConnectRelay             = "connectRelay"
	CmdSendPost                 = "sendPost"
	CmdSendFriendRequest        = "sendFriendRequest"
	CmdAcceptFriendRequest      = "acceptFriendRequest"
	CmdDenyFriendRequest        = "denyFriendRequest"
	CmdGetFriendList            = "getFriendList"
	CmdGetInboundFriendRequests = "getInboundFriendRequests"
	CmdLoadFeed                 = "loadFeed"
	CmdLoadBoard                = "loadBoard"
	CmdSendDirectMessage        = "sendDirectMessage"
	CmdGetDirectMessages        = "getDirectMessages"
)

// PeerParams addresses a command at one peer.
type PeerParams struct {
	PeerID PeerID `json:"peer_id"`
}

type ContentParams struct {
	Content string `json:"content"`
}

type RelayParams struct {
	Address string `json:"address"`
}

type FriendRequestParams struct {
	PeerID    PeerID `json:"peer_id"`
	Multiaddr string `json:"multiaddr"`
	Message   string `json:"message"`
}

type DirectMessageParams struct {
	PeerID  PeerID `json:"peer_id"`
	Content string `json:"content"`
}

// Session is returned by the development backend's session endpoint.
type Session struct {
	Token     string `json:"token"`
	PeerID    PeerID `json:"peer_id"`
	Multiaddr string `json:"multiaddr"`
}
