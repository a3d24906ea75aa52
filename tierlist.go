// Tierclash
//
// Friends share a room and take turns dropping cards into one tier list.
// Each game reveals a pack's cards in an order derived from the room's
// seed, and the judge for every turn rotates through the players seated
// when the pack was picked. Every client derives the same turn from the
// same record, so the server only has to store and fan out room state.
//
// Routes:
//   - $path                  → landing page; resumes the last room if the cookie still fits
//   - POST $path             → create a room (form: name)
//   - POST $path/join        → join a room (form: code, name)
//   - $path/:code            → HTML client for members, join form for everyone else
//   - $path/:code/ws         → WebSocket for that room
//   - $path/:code/qr         → PNG QR code for the room URL
//   - $path/:code/state      → JSON snapshot for the caller
//   - /packs                 → JSON pack catalog

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/sync/singleflight"

	"github.com/Seednode/tierclash/internal/room"
	"github.com/Seednode/tierclash/internal/tierlist"
)

const (
	playerCookieName = "tierclash_id"
	roomCookieName   = "tierclash_room"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var errUnknownMessage = errors.New("unknown message type")

// Messages coming from clients
type clientMessage struct {
	Type     string `json:"type"`                // "start", "select_pack", "place", "finish", "play_again", "lobby", "kick", "leave"
	PackID   string `json:"pack_id,omitempty"`   // select_pack
	Tier     string `json:"tier,omitempty"`      // place
	Turn     int    `json:"turn"`                // place: the turn index the judge was looking at
	PlayerID string `json:"player_id,omitempty"` // kick
}

// snapshotMessage is the whole room as one client should see it.
type snapshotMessage struct {
	Type      string           `json:"type"` // "snapshot"
	Room      tierlist.Session `json:"room"`
	Turn      *tierlist.Turn   `json:"turn,omitempty"`
	Board     []tierlist.Row   `json:"board"`
	You       string           `json:"you"`
	IsHost    bool             `json:"is_host"`
	Spectator bool             `json:"spectator"`
}

// errorMessage is sent only to the client whose action failed.
type errorMessage struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}

// closedMessage tells a client it will receive nothing more.
type closedMessage struct {
	Type    string `json:"type"` // "closed"
	Message string `json:"message"`
}

func newSnapshot(s tierlist.Session, playerID string) snapshotMessage {
	msg := snapshotMessage{
		Type:   "snapshot",
		Room:   s,
		Board:  s.Board(),
		You:    playerID,
		IsHost: s.IsHost(playerID),
	}

	if s.Phase == tierlist.PhaseActive {
		if turn, err := s.Turn(); err == nil {
			msg.Turn = &turn
		}
		msg.Spectator = !slices.Contains(s.Rotation, playerID)
	}

	return msg
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, room.ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, room.ErrStaleTurn):
		return "stale_turn"
	case errors.Is(err, room.ErrSessionNotFound):
		return "not_found"
	case errors.Is(err, room.ErrConflict):
		return "conflict"
	case errors.Is(err, tierlist.ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, tierlist.ErrInvalidTier):
		return "invalid_tier"
	case errors.Is(err, tierlist.ErrUnknownPack):
		return "unknown_pack"
	case errors.Is(err, tierlist.ErrNoPlayers):
		return "no_players"
	case errors.Is(err, tierlist.ErrNotInRoom):
		return "not_in_room"
	case errors.Is(err, errUnknownMessage):
		return "unknown_message"
	}
	return "internal"
}

func newErrorMessage(err error) errorMessage {
	return errorMessage{
		Type:    "error",
		Code:    errorCode(err),
		Message: err.Error(),
	}
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type action struct {
	client *Client
	msg    clientMessage
}

// Hub fans one room's store notifications out to its websocket clients and
// turns client messages into service calls. Only run touches clients.
type Hub struct {
	code   string
	svc    *room.Service
	clock  quartz.Clock
	logger *log.Logger

	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	actions  chan action
	changed  chan struct{}
	quit     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	mu          sync.Mutex
	latest      tierlist.Session
	deleted     bool
	connected   int
	lastActive  time.Time
	unsubscribe func()
}

func newHub(code string, svc *room.Service, clock quartz.Clock, logger *log.Logger) *Hub {
	return &Hub{
		code:       code,
		svc:        svc,
		clock:      clock,
		logger:     logger.With("code", code),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		actions:    make(chan action),
		changed:    make(chan struct{}, 1),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
		lastActive: clock.Now(),
	}
}

// onChange is the store subscription. It may be called from inside a store
// write, so it only records the snapshot and wakes run.
func (h *Hub) onChange(s *tierlist.Session) {
	h.mu.Lock()
	switch {
	case s == nil:
		h.deleted = true
	case s.Version > h.latest.Version:
		h.latest = *s
	}
	h.mu.Unlock()

	select {
	case h.changed <- struct{}{}:
	default:
	}
}

func (h *Hub) current() (tierlist.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.latest, h.deleted
}

func (h *Hub) touch() {
	h.mu.Lock()
	h.connected = len(h.clients)
	h.lastActive = h.clock.Now()
	h.mu.Unlock()
}

// idle reports whether nobody has been connected since before cutoff.
func (h *Hub) idle(cutoff time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.connected == 0 && h.lastActive.Before(cutoff)
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
}

// join hands c to run. It fails if the hub has already stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unreg <- c:
	case <-h.stopped:
	}
}

func (h *Hub) submit(a action) bool {
	select {
	case h.actions <- a:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			h.touch()

			s, deleted := h.current()
			if deleted {
				h.deliver(c, closedMessage{Type: "closed", Message: "This room has closed."})
				continue
			}
			h.sendSnapshot(c, s)

		case c := <-h.unreg:
			h.drop(c)
			h.touch()

		case a := <-h.actions:
			h.touch()
			h.handle(ctx, a)

		case <-h.changed:
			s, deleted := h.current()
			if deleted {
				h.logger.Debug("room deleted, closing hub")
				h.broadcast(closedMessage{Type: "closed", Message: "This room has closed."})
				return
			}
			for c := range h.clients {
				h.sendSnapshot(c, s)
			}

		case <-h.quit:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) shutdown() {
	close(h.stopped)

	if h.unsubscribe != nil {
		h.unsubscribe()
	}

	for c := range h.clients {
		h.drop(c)
	}

	h.touch()
}

func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// deliver never blocks run; a client that cannot keep up is dropped.
func (h *Hub) deliver(c *Client, msg any) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		h.logger.Debug("dropping slow client", "player", c.playerID)
		h.drop(c)
	}
}

func (h *Hub) broadcast(msg any) {
	for c := range h.clients {
		h.deliver(c, msg)
	}
}

// sendSnapshot also disconnects clients that are no longer in the room.
func (h *Hub) sendSnapshot(c *Client, s tierlist.Session) {
	if !s.HasPlayer(c.playerID) {
		h.deliver(c, closedMessage{Type: "closed", Message: "You are no longer in this room."})
		h.drop(c)
		return
	}

	h.deliver(c, newSnapshot(s, c.playerID))
}

func (h *Hub) handle(ctx context.Context, a action) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := a.client
	msg := a.msg

	var err error

	switch msg.Type {
	case "start":
		_, err = h.svc.Start(ctx, h.code, c.playerID)
	case "select_pack":
		_, err = h.svc.SelectPack(ctx, h.code, c.playerID, msg.PackID)
	case "place":
		var tier tierlist.Tier
		tier, err = tierlist.ParseTier(msg.Tier)
		if err == nil {
			_, err = h.svc.Place(ctx, h.code, c.playerID, msg.Turn, tier)
		}
	case "finish":
		_, _, err = h.svc.Finalize(ctx, h.code, c.playerID)
	case "play_again":
		_, err = h.svc.PlayAgain(ctx, h.code, c.playerID)
	case "lobby":
		_, err = h.svc.ReturnToLobby(ctx, h.code, c.playerID)
	case "kick":
		_, err = h.svc.Kick(ctx, h.code, c.playerID, msg.PlayerID)
	case "leave":
		err = h.svc.Leave(ctx, h.code, c.playerID)
	default:
		err = fmt.Errorf("%w: %q", errUnknownMessage, msg.Type)
	}

	if err != nil {
		h.logger.Debug("action rejected", "type", msg.Type, "player", c.playerID, "err", err)
		h.deliver(c, newErrorMessage(err))
	}
}

// roomManager holds one hub per open room, started on first connection.
type roomManager struct {
	cfg    *Config
	svc    *room.Service
	clock  quartz.Clock
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	idleTimeout time.Duration

	mu   sync.Mutex
	hubs map[string]*Hub

	starting singleflight.Group
}

func reapInterval(idleTimeout time.Duration) time.Duration {
	if idleTimeout > 0 {
		return idleTimeout / 2
	}
	return time.Minute
}

func newRoomManager(ctx context.Context, cfg *Config, svc *room.Service, clock quartz.Clock) *roomManager {
	ctx, cancel := context.WithCancel(ctx)

	rm := &roomManager{
		cfg:         cfg,
		svc:         svc,
		clock:       clock,
		logger:      cfg.logger().WithPrefix("hubs"),
		ctx:         ctx,
		cancel:      cancel,
		idleTimeout: cfg.sessionTimeout,
		hubs:        make(map[string]*Hub),
	}

	// The ticker exists before this returns so a mocked clock sees it.
	ticker := clock.NewTicker(reapInterval(cfg.sessionTimeout), "reaper")

	rm.wg.Add(1)
	go func() {
		defer rm.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rm.reap(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	return rm
}

// hub returns the running hub for code, starting one if needed. Store
// round trips happen outside rm.mu, and concurrent callers for the same
// code share one start.
func (rm *roomManager) hub(code string) (*Hub, error) {
	if h, ok := rm.lookup(code); ok {
		return h, nil
	}

	v, err, _ := rm.starting.Do(code, func() (any, error) {
		if h, ok := rm.lookup(code); ok {
			return h, nil
		}
		return rm.start(code)
	})
	if err != nil {
		return nil, err
	}

	return v.(*Hub), nil
}

func (rm *roomManager) lookup(code string) (*Hub, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	h, ok := rm.hubs[code]
	return h, ok
}

func (rm *roomManager) start(code string) (*Hub, error) {
	h := newHub(code, rm.svc, rm.clock, rm.logger)

	unsubscribe, err := rm.svc.Store().Subscribe(rm.ctx, code, h.onChange)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(rm.ctx, timeout)
	defer cancel()

	s, err := rm.svc.Snapshot(ctx, code)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	h.onChange(&s)
	h.unsubscribe = unsubscribe

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if err := rm.ctx.Err(); err != nil {
		unsubscribe()
		return nil, err
	}

	rm.hubs[code] = h

	rm.wg.Add(1)
	go func() {
		defer rm.wg.Done()
		h.run(rm.ctx)
		rm.forget(code, h)
	}()

	logf(rm.cfg, "GAMES: Started hub for %s", code)

	return h, nil
}

func (rm *roomManager) forget(code string, h *Hub) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.hubs[code] == h {
		delete(rm.hubs, code)
	}
}

func (rm *roomManager) open() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	return len(rm.hubs)
}

// reap expires idle rooms from the store and stops hubs nobody is watching.
// Rooms that vanished without a notification, such as a redis key reaching
// its ttl, are noticed here too.
func (rm *roomManager) reap(ctx context.Context) {
	if sweeper, ok := rm.svc.Store().(room.Sweeper); ok {
		for _, code := range sweeper.Sweep(ctx) {
			rm.logger.Info("room expired", "code", code)
		}
	}

	rm.mu.Lock()
	hubs := make(map[string]*Hub, len(rm.hubs))
	for code, h := range rm.hubs {
		hubs[code] = h
	}
	rm.mu.Unlock()

	cutoff := rm.clock.Now().Add(-rm.idleTimeout)

	for code, h := range hubs {
		if rm.idleTimeout > 0 && h.idle(cutoff) {
			logf(rm.cfg, "GAMES: Stopping idle hub for %s", code)
			h.stop()
			continue
		}

		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		_, err := rm.svc.Snapshot(fetchCtx, code)
		cancel()

		if errors.Is(err, room.ErrSessionNotFound) {
			h.onChange(nil)
		}
	}
}

// Close stops the reaper and every hub, and waits for them to exit.
func (rm *roomManager) Close() {
	rm.mu.Lock()
	rm.cancel()
	rm.mu.Unlock()

	rm.wg.Wait()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func cookiePath(cfg *Config) string {
	return cfg.prefix + "/"
}

func setIdentity(cfg *Config, w http.ResponseWriter, id room.Identity) {
	maxAge := 0
	if cfg.roomTTL > 0 {
		maxAge = int(cfg.roomTTL.Seconds())
	}

	for name, value := range map[string]string{
		playerCookieName: id.PlayerID,
		roomCookieName:   id.RoomCode,
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     cookiePath(cfg),
			MaxAge:   maxAge,
			HttpOnly: true,
			Secure:   cfg.scheme() == "https",
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// identity reads what the client remembers. Either field may be empty.
func identity(r *http.Request) room.Identity {
	var id room.Identity

	if c, err := r.Cookie(playerCookieName); err == nil {
		id.PlayerID = c.Value
	}
	if c, err := r.Cookie(roomCookieName); err == nil {
		id.RoomCode = c.Value
	}

	return id
}

func roomPath(cfg *Config, path, code string) string {
	return cfg.prefix + path + "/" + code
}

func landingPage(cfg *Config, path, code, problem string) string {
	var b strings.Builder

	b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	b.WriteString(getFavicon())
	b.WriteString(fmt.Sprintf(`<link rel="stylesheet" href="%s/assets/tierlist/app.css">`, cfg.prefix))
	b.WriteString(`<title>tierclash</title></head><body><main class="home">`)
	b.WriteString(`<h1>tierclash</h1>`)

	if problem != "" {
		b.WriteString(fmt.Sprintf(`<p class="problem">%s</p>`, html.EscapeString(problem)))
	}

	if code == "" {
		b.WriteString(fmt.Sprintf(`<form method="post" action="%s"><h2>New room</h2>`, cfg.prefix+path))
		b.WriteString(fmt.Sprintf(`<input name="name" placeholder="Your name" maxlength="%d" required>`, tierlist.MaxNameLength))
		b.WriteString(`<button type="submit">Create</button></form>`)
	}

	b.WriteString(fmt.Sprintf(`<form method="post" action="%s/join"><h2>Join a room</h2>`, cfg.prefix+path))
	b.WriteString(fmt.Sprintf(`<input name="code" placeholder="Room code" maxlength="%d" value="%s" required>`,
		room.CodeLength, html.EscapeString(code)))
	b.WriteString(fmt.Sprintf(`<input name="name" placeholder="Your name" maxlength="%d" required>`, tierlist.MaxNameLength))
	b.WriteString(`<button type="submit">Join</button></form>`)
	b.WriteString(`</main></body></html>`)

	return b.String()
}

func writeLanding(cfg *Config, w http.ResponseWriter, status int, path, code, problem string, errs chan<- error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	if _, err := w.Write([]byte(landingPage(cfg, path, code, problem))); err != nil {
		reportErr(errs, err)
	}
}

// problemText turns a create/join failure into something a person can act on.
func problemText(err error) string {
	switch {
	case errors.Is(err, room.ErrSessionNotFound):
		return "That room does not exist anymore."
	case errors.Is(err, tierlist.ErrRoomFull):
		return "That room is full."
	case errors.Is(err, tierlist.ErrDuplicateName):
		return "Somebody in that room already uses that name."
	case errors.Is(err, tierlist.ErrEmptyName):
		return "Please enter a name."
	case errors.Is(err, tierlist.ErrNameTooLong):
		return fmt.Sprintf("Names can be at most %d characters.", tierlist.MaxNameLength)
	}
	return "Something went wrong. Please try again."
}

// serveLanding resumes the remembered room when the player is still in it.
func serveLanding(cfg *Config, path string, rm *roomManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if s, _, err := rm.svc.Resume(r.Context(), identity(r)); err == nil {
			http.Redirect(w, r, roomPath(cfg, path, s.Code), http.StatusSeeOther)
			return
		}

		writeLanding(cfg, w, http.StatusOK, path, "", "", errs)
	}
}

func serveCreateRoom(cfg *Config, path string, rm *roomManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		s, host, err := rm.svc.CreateRoom(r.Context(), r.PostFormValue("name"))
		if err != nil {
			writeLanding(cfg, w, http.StatusBadRequest, path, "", problemText(err), errs)
			return
		}

		logf(cfg, "GAMES: Created room %s for %s", s.Code, realIP(r))

		setIdentity(cfg, w, room.Identity{PlayerID: host.ID, RoomCode: s.Code})
		http.Redirect(w, r, roomPath(cfg, path, s.Code), http.StatusSeeOther)
	}
}

func serveJoinRoom(cfg *Config, path string, rm *roomManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		code := r.PostFormValue("code")

		s, p, err := rm.svc.JoinRoom(r.Context(), code, r.PostFormValue("name"), identity(r).PlayerID)
		if err != nil {
			writeLanding(cfg, w, http.StatusBadRequest, path, strings.ToUpper(strings.TrimSpace(code)), problemText(err), errs)
			return
		}

		setIdentity(cfg, w, room.Identity{PlayerID: p.ID, RoomCode: s.Code})
		http.Redirect(w, r, roomPath(cfg, path, s.Code), http.StatusSeeOther)
	}
}

// member resolves the caller against the room named in the route.
func member(r *http.Request, rm *roomManager, ps httprouter.Params) (tierlist.Session, tierlist.Player, error) {
	code, ok := room.NormalizeCode(ps.ByName("code"))
	if !ok {
		return tierlist.Session{}, tierlist.Player{}, room.ErrSessionNotFound
	}

	return rm.svc.Resume(r.Context(), room.Identity{PlayerID: identity(r).PlayerID, RoomCode: code})
}

func serveRoomPage(cfg *Config, path string, rm *roomManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s, p, err := member(r, rm, ps)
		if err != nil {
			code, _ := room.NormalizeCode(ps.ByName("code"))
			writeLanding(cfg, w, http.StatusOK, path, code, "", errs)
			return
		}

		data, err := assets.ReadFile("assets/tierlist/index.html")
		if err != nil {
			http.Error(w, "missing client", http.StatusInternalServerError)
			return
		}

		setIdentity(cfg, w, room.Identity{PlayerID: p.ID, RoomCode: s.Code})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if _, err := w.Write(data); err != nil {
			reportErr(errs, err)
		}
	}
}

func serveState(cfg *Config, rm *roomManager, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s, p, err := member(r, rm, ps)
		if err != nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(newSnapshot(s, p.ID)); err != nil {
			reportErr(errs, err)
		}
	}
}

func servePacks(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(tierlist.Packs()); err != nil {
			reportErr(errs, err)
		}
	}
}

func serveWS(cfg *Config, rm *roomManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		s, p, err := member(r, rm, ps)
		if err != nil {
			http.Error(w, "not a member of this room", http.StatusForbidden)
			return
		}

		hub, err := rm.hub(s.Code)
		if err != nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			rm.logger.Debug("upgrade failed", "err", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			playerID: p.ID,
		}

		if !hub.join(client) {
			_ = conn.WriteJSON(closedMessage{Type: "closed", Message: "This room has closed."})
			_ = conn.Close()
			return
		}

		logf(cfg, "GAMES: %s connected to %s from %s", p.Name, s.Code, realIP(r))

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		if !h.submit(action{client: c, msg: msg}) {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// QR handler: generates a PNG QR code for the room URL using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if _, ok := room.NormalizeCode(ps.ByName("code")); !ok {
			http.Error(w, "invalid room code", http.StatusBadRequest)
			return
		}

		scheme := cfg.scheme()
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

func registerTierList(cfg *Config, path string, mux *httprouter.Router, rm *roomManager, errs chan<- error) {
	mux.GET(cfg.prefix+path, serveLanding(cfg, path, rm, errs))
	mux.POST(cfg.prefix+path, serveCreateRoom(cfg, path, rm, errs))
	mux.POST(cfg.prefix+path+"/join", serveJoinRoom(cfg, path, rm, errs))

	mux.GET(cfg.prefix+path+"/:code", serveRoomPage(cfg, path, rm, errs))
	mux.GET(cfg.prefix+path+"/:code/ws", serveWS(cfg, rm))
	mux.GET(cfg.prefix+path+"/:code/qr", qrHandler(cfg))
	mux.GET(cfg.prefix+path+"/:code/state", serveState(cfg, rm, errs))

	mux.GET(cfg.prefix+"/packs", servePacks(cfg, errs))
}
