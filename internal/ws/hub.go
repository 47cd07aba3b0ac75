package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bidpitch/auction/internal/domain"
	"github.com/bidpitch/auction/internal/live"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tunables
// ──────────────────────────────────────────────────────────────────────────────

const (
	writeDeadline  = 10 * time.Second
	pingInterval   = 30 * time.Second
	pongWait       = 35 * time.Second // must be > pingInterval
	maxMessageSize = 1024             // bytes; inbound frames are small commands
	sendBufferSize = 256              // messages in each client send channel
	dispatchWait   = 5 * time.Second  // budget for one inbound command
)

// ──────────────────────────────────────────────────────────────────────────────
// Collaborator interfaces
// ──────────────────────────────────────────────────────────────────────────────

// Engine is the slice of the live engine the gateway drives.
type Engine interface {
	PlaceBid(ctx context.Context, req domain.PlaceBidRequest) error
	SetStandingBid(ctx context.Context, auctionID, teamID uuid.UUID, ceiling int64, origin string) error
	Snapshot(auctionID uuid.UUID) live.Snapshot
}

// RoundController drives round lifecycle on behalf of admin connections.
// Implemented by the auction service, which loads the lot, seeds round
// parameters, and settles through the same idempotent finalize as natural
// expiry. This lives on the public server because the round engine does: the
// rooms exist only in the process animating them.
type RoundController interface {
	StartRound(ctx context.Context, auctionID, lotID uuid.UUID) error
	ForceEndRound(ctx context.Context, auctionID uuid.UUID) error
}

// TeamResolver maps an authenticated user to the team they bid for.
type TeamResolver interface {
	TeamForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// ──────────────────────────────────────────────────────────────────────────────
// Client
// ──────────────────────────────────────────────────────────────────────────────

// Client represents one connected WebSocket endpoint.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte // buffered outbound message queue
	userID uuid.UUID   // zero-value = anonymous spectator
	role   domain.UserRole
	origin string // transport-derived network address
}

// subscription is a client's request to follow one auction's topic.
type subscription struct {
	client    *Client
	auctionID uuid.UUID
}

// topicMessage is one serialised frame bound for an auction's subscribers.
type topicMessage struct {
	auctionID uuid.UUID
	data      []byte
}

// ──────────────────────────────────────────────────────────────────────────────
// Hub
// ──────────────────────────────────────────────────────────────────────────────

// Hub maintains the set of active clients, their auction subscriptions, and
// routes engine events to the right topic. Run() must be called in a
// dedicated goroutine before ServeWs is used.
//
// Hub implements live.Broadcaster, so the engine publishes through it
// directly.
type Hub struct {
	engine Engine
	rounds RoundController
	teams  TeamResolver
	log    *slog.Logger

	// topics maps each client to the auction it follows; uuid.Nil = none.
	mu     sync.RWMutex
	topics map[*Client]uuid.UUID

	// channels consumed by Run()
	broadcast  chan topicMessage
	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription

	// JWT signing key (optional – if empty, all connections are anonymous)
	jwtSecret []byte

	// upgrader is safe for concurrent use after construction.
	upgrader websocket.Upgrader
}

// NewHub creates a Hub ready to be started with Run().
// jwtSecret may be nil; WS connections will then be treated as anonymous
// spectators who can join topics but not act.
func NewHub(engine Engine, rounds RoundController, teams TeamResolver, jwtSecret []byte, allowedOrigins []string, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		engine:     engine,
		rounds:     rounds,
		teams:      teams,
		log:        log,
		topics:     make(map[*Client]uuid.UUID),
		broadcast:  make(chan topicMessage, 512),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		jwtSecret:  jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true // dev mode: allow all
				}
				origin := r.Header.Get("Origin")
				for _, o := range allowedOrigins {
					if o == "*" || o == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// Bind attaches the engine and its collaborators after construction.
// The hub is the engine's broadcaster and the engine serves the hub's bid
// commands, so one of the two must be wired late; call Bind before Run().
func (h *Hub) Bind(engine Engine, rounds RoundController, teams TeamResolver) {
	h.engine = engine
	h.rounds = rounds
	h.teams = teams
}

// Run processes registration, subscription, and broadcast events
// sequentially. Call it once as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.topics[client] = uuid.Nil
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.topics[client]; ok {
				delete(h.topics, client)
				close(client.send)
			}
			h.mu.Unlock()

		case sub := <-h.subscribe:
			h.mu.Lock()
			if _, ok := h.topics[sub.client]; ok {
				h.topics[sub.client] = sub.auctionID
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client, topic := range h.topics {
				if topic != msg.auctionID {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// Client's buffer full — drop the message for this client.
					// The writePump will detect a stalled connection separately.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ConnectedCount returns the current number of connected clients.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics)
}

// ──────────────────────────────────────────────────────────────────────────────
// ServeWs — HTTP → WebSocket upgrade
// ──────────────────────────────────────────────────────────────────────────────

// ServeWs upgrades an HTTP request to a WebSocket connection, optionally
// authenticates the caller via a JWT in the ?token= query parameter, and
// starts the read/write pumps. The client's origin address is captured here,
// from the transport, and attributed to every bid the connection places.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	origin := clientAddr(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err, "remote", origin)
		return
	}

	var (
		userID uuid.UUID // zero = anonymous
		role   domain.UserRole
	)
	if token := r.URL.Query().Get("token"); token != "" && len(h.jwtSecret) > 0 {
		userID, role = h.parseJWT(token)
	}
	if role == "" {
		role = domain.RoleSpectator
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		userID: userID,
		role:   role,
		origin: origin,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// clientAddr prefers the first X-Forwarded-For hop, falling back to the
// socket's remote address.
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseJWT extracts the user UUID and role from a signed token.
// Returns zero values on any failure (treated as anonymous).
func (h *Hub) parseJWT(tokenString string) (uuid.UUID, domain.UserRole) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !tok.Valid {
		return uuid.Nil, ""
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, ""
	}
	sub, _ := claims.GetSubject()
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, ""
	}
	role, _ := claims["role"].(string)
	return id, domain.UserRole(role)
}

// ──────────────────────────────────────────────────────────────────────────────
// Client pumps
// ──────────────────────────────────────────────────────────────────────────────

// writePump drains the client's send channel and writes messages to the
// WebSocket connection. It also sends ping frames every pingInterval.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				// Hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads command frames from the WebSocket connection and dispatches
// them. Malformed frames and unknown commands are dropped without a reply;
// rejected bids likewise produce no negative acknowledgement. When the
// connection drops the client is unregistered.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("ws unexpected close", "user_id", c.userID, "error", err)
			}
			return
		}
		// Resetting the deadline on data frames keeps busy bidders alive even
		// if a pong goes missing.
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		c.hub.dispatch(c, msg)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Inbound dispatch
// ──────────────────────────────────────────────────────────────────────────────

// dispatch routes one inbound command. It runs on the client's read pump, so
// a slow command only stalls its own connection.
func (h *Hub) dispatch(c *Client, msg InboundMessage) {
	if msg.AuctionID == uuid.Nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dispatchWait)
	defer cancel()

	switch msg.Type {
	case MsgTypeJoin:
		h.subscribe <- subscription{client: c, auctionID: msg.AuctionID}
		h.sendJSON(c, SnapshotMessage{
			Type:     MsgTypeSnapshot,
			Snapshot: h.engine.Snapshot(msg.AuctionID),
		})

	case MsgTypeStartRound:
		if !c.role.IsAdmin() {
			h.SendError(c, "forbidden", "only admins can start a round")
			return
		}
		if err := h.rounds.StartRound(ctx, msg.AuctionID, msg.LotID); err != nil {
			h.SendError(c, "start_round_failed", err.Error())
		}

	case MsgTypeForceEnd:
		if !c.role.IsAdmin() {
			h.SendError(c, "forbidden", "only admins can force-end a round")
			return
		}
		if err := h.rounds.ForceEndRound(ctx, msg.AuctionID); err != nil {
			h.SendError(c, "force_end_failed", err.Error())
		}

	case MsgTypePlaceBid:
		teamID, ok := h.bidderTeam(ctx, c)
		if !ok {
			return
		}
		err := h.engine.PlaceBid(ctx, domain.PlaceBidRequest{
			AuctionID:     msg.AuctionID,
			TeamID:        teamID,
			PlayerID:      msg.PlayerID,
			Amount:        msg.Amount,
			OriginAddress: c.origin,
		})
		if err != nil {
			// Dropped silently on the wire; the trace lives in the log.
			h.log.Debug("bid dropped",
				"auction_id", msg.AuctionID, "team_id", teamID,
				"amount", msg.Amount, "reason", err)
		}

	case MsgTypeSetStandingBid:
		teamID, ok := h.bidderTeam(ctx, c)
		if !ok {
			return
		}
		err := h.engine.SetStandingBid(ctx, msg.AuctionID, teamID, msg.Ceiling, c.origin)
		if err != nil {
			h.log.Debug("standing bid rejected",
				"auction_id", msg.AuctionID, "team_id", teamID, "reason", err)
		}
	}
}

// bidderTeam resolves the connection's user to their franchise. Anonymous
// connections and roles without bidding rights are cut off here.
func (h *Hub) bidderTeam(ctx context.Context, c *Client) (uuid.UUID, bool) {
	if c.userID == uuid.Nil || !c.role.CanBid() {
		return uuid.Nil, false
	}
	teamID, err := h.teams.TeamForUser(ctx, c.userID)
	if err != nil {
		h.log.Debug("no team for bidder", "user_id", c.userID, "error", err)
		return uuid.Nil, false
	}
	return teamID, true
}

// ──────────────────────────────────────────────────────────────────────────────
// live.Broadcaster implementation
// ──────────────────────────────────────────────────────────────────────────────

// RoundStarted publishes a round_started frame on the auction topic.
func (h *Hub) RoundStarted(auctionID uuid.UUID, ev live.RoundStartedEvent) {
	h.broadcastJSON(auctionID, RoundStartedMessage{
		Type: MsgTypeRoundStarted, AuctionID: auctionID, RoundStartedEvent: ev,
	})
}

// Tick publishes the countdown frame.
func (h *Hub) Tick(auctionID uuid.UUID, ev live.TickEvent) {
	h.broadcastJSON(auctionID, TickMessage{
		Type: MsgTypeTick, AuctionID: auctionID, TickEvent: ev,
	})
}

// BidAccepted publishes an accepted bid.
func (h *Hub) BidAccepted(auctionID uuid.UUID, ev live.BidAcceptedEvent) {
	h.broadcastJSON(auctionID, BidAcceptedMessage{
		Type: MsgTypeBidAccepted, AuctionID: auctionID, BidAcceptedEvent: ev,
	})
}

// Commentary publishes advisory narration.
func (h *Hub) Commentary(auctionID uuid.UUID, ev live.CommentaryEvent) {
	h.broadcastJSON(auctionID, CommentaryMessage{
		Type: MsgTypeCommentary, AuctionID: auctionID, CommentaryEvent: ev,
	})
}

// SaleFinalized publishes a round's settled outcome.
func (h *Hub) SaleFinalized(auctionID uuid.UUID, ev live.SaleFinalizedEvent) {
	h.broadcastJSON(auctionID, SaleFinalizedMessage{
		Type: MsgTypeSaleFinalized, AuctionID: auctionID, SaleFinalizedEvent: ev,
	})
}

// broadcastJSON is the common marshalling path. Non-blocking: the engine must
// never stall on a slow gateway.
func (h *Hub) broadcastJSON(auctionID uuid.UUID, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error("ws marshal error", "error", err)
		return
	}
	select {
	case h.broadcast <- topicMessage{auctionID: auctionID, data: data}:
	default:
		h.log.Warn("ws broadcast channel full, message dropped", "auction_id", auctionID)
	}
}

// sendJSON writes a message directly to one client's send channel.
func (h *Hub) sendJSON(c *Client, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// SendError writes an error message directly to one client's send channel.
func (h *Hub) SendError(c *Client, code, message string) {
	h.sendJSON(c, ErrorMessage{Type: MsgTypeError, Code: code, Message: message})
}
