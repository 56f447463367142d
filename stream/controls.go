package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const stateTimeout = 3 * time.Second

// Subscription is a set of packet kinds a websocket client receives.
type Subscription uint32

// Possible subscription flags.
const (
	SubscriptionFrame = Subscription(1 << iota)
	SubscriptionState
	SubscriptionAll = Subscription(0)
)

// Possible packet types. Each websocket message starts with one of these.
const (
	PacketFrame = iota + 1
	PacketState
	PacketStop
)

// IsSubscribedTo returns whether or not the client subscription is subscribed
// to the given subscription.
func (s Subscription) IsSubscribedTo(sub Subscription) bool {
	return (s & sub) == sub
}

// WebsocketControl is the message a client sends to change its subscription.
type WebsocketControl struct {
	ID           string `json:"id"`
	Subscription uint32 `json:"subscription"`
}

// Client is a websocket connected client.
type Client struct {
	mutex         *sync.Mutex
	id            string
	conn          *websocket.Conn
	subscriptions Subscription
}

// Opener acquires the media for a playlist target.
type Opener func(ctx context.Context, target string) (Media, error)

// Manager plays queued targets one at a time and publishes the playback
// state to websocket clients.
type Manager struct {
	clientsMutex *sync.Mutex
	clients      []*Client

	stateCond *sync.Cond
	state     PlaybackState
	cancel    func()

	queue  *Queue
	open   Opener
	player Scheduler
}

// NewManager returns a manager playing through a copy of player. The
// player's OnState hook is replaced.
func NewManager(queue *Queue, open Opener, player Scheduler) *Manager {
	return &Manager{
		clientsMutex: new(sync.Mutex),
		stateCond:    sync.NewCond(new(sync.Mutex)),
		state:        PlaybackState{State: StateIdle},
		queue:        queue,
		open:         open,
		player:       player,
	}
}

// Queue returns the manager's playlist queue.
func (m *Manager) Queue() *Queue {
	return m.queue
}

// Enqueue adds a target to the playlist.
func (m *Manager) Enqueue(target string) {
	log.Println("aavideo stream: queued", target)
	m.queue.Push(target)
}

// Run plays queued targets until ctx is done. A failed item is logged and
// the manager moves on to the next one.
func (m *Manager) Run(ctx context.Context) error {
	for {
		target, ok := m.queue.Next(ctx)
		if !ok {
			return ctx.Err()
		}

		if err := m.play(ctx, target); err != nil {
			log.Printf("aavideo stream: %s: %v", target, err)
		}
	}
}

func (m *Manager) play(ctx context.Context, target string) error {
	itemCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.stateCond.L.Lock()
	m.cancel = cancel
	m.stateCond.L.Unlock()

	defer m.setState(PlaybackState{State: StateIdle}, true)

	log.Println("aavideo stream: playing", target)

	media, err := m.open(itemCtx, target)
	if err != nil {
		m.setState(PlaybackState{State: StateFailed, Source: target, Err: err}, false)
		return err
	}
	defer media.Close()

	player := m.player
	player.OnState = func(st PlaybackState) {
		m.setState(st, false)
	}

	_, err = player.Play(itemCtx, media)
	return err
}

func (m *Manager) setState(st PlaybackState, clearCancel bool) {
	m.stateCond.L.Lock()
	prev := m.state
	m.state = st
	if clearCancel {
		m.cancel = nil
	}
	m.stateCond.Broadcast()
	m.stateCond.L.Unlock()

	d, err := json.Marshal(st)
	if err != nil {
		log.Println("aavideo stream: error encoding state JSON:", err)
		return
	}

	m.Broadcast(SubscriptionState, append([]byte{PacketState}, d...))

	if st.State == StateIdle && prev.State != StateIdle {
		m.Broadcast(SubscriptionAll, []byte{PacketStop})
	}
}

// Stop cancels the item being played and waits for the manager to return
// to idle.
func (m *Manager) Stop() (PlaybackState, error) {
	m.stateCond.L.Lock()
	cancel := m.cancel
	m.stateCond.L.Unlock()

	if cancel == nil {
		return PlaybackState{}, errors.New("aavideo stream: nothing is playing")
	}

	cancel()

	ctx, done := context.WithTimeout(context.Background(), stateTimeout)
	defer done()

	st, ok := m.WaitForState(ctx, func(st PlaybackState) bool {
		return st.State == StateIdle
	})
	if !ok {
		return PlaybackState{}, errors.New("aavideo stream: timeout waiting for playback to stop")
	}

	return st, nil
}

// State returns a copy of the current playback state.
func (m *Manager) State() PlaybackState {
	m.stateCond.L.Lock()
	defer m.stateCond.L.Unlock()

	return m.state
}

// WaitForState blocks until match accepts the current state or ctx is done.
func (m *Manager) WaitForState(ctx context.Context, match func(PlaybackState) bool) (PlaybackState, bool) {
	stop := context.AfterFunc(ctx, func() {
		m.stateCond.L.Lock()
		defer m.stateCond.L.Unlock()
		m.stateCond.Broadcast()
	})
	defer stop()

	m.stateCond.L.Lock()
	defer m.stateCond.L.Unlock()

	for !match(m.state) {
		if ctx.Err() != nil {
			return PlaybackState{}, false
		}
		m.stateCond.Wait()
	}

	return m.state, true
}

// Write broadcasts one rendered frame to clients subscribed to frames. The
// Renderer issues exactly one write per frame, so a Manager can be placed
// behind it with io.MultiWriter.
func (m *Manager) Write(p []byte) (int, error) {
	msg := make([]byte, 0, len(p)+1)
	msg = append(msg, PacketFrame)
	msg = append(msg, p...)
	m.Broadcast(SubscriptionFrame, msg)
	return len(p), nil
}

// Broadcast sends data to every client subscribed to sub.
func (m *Manager) Broadcast(sub Subscription, data ...[]byte) {
	m.clientsMutex.Lock()
	clientCopy := make([]*Client, len(m.clients))
	copy(clientCopy, m.clients)
	m.clientsMutex.Unlock()

	for _, client := range clientCopy {
		client.mutex.Lock()
		if client.subscriptions.IsSubscribedTo(sub) {
			for _, d := range data {
				client.conn.WriteMessage(websocket.BinaryMessage, d)
			}
		}
		client.mutex.Unlock()
	}
}

// HandleConn serves a websocket client until it disconnects. Clients start
// subscribed to state updates and receive the current state immediately.
func (m *Manager) HandleConn(conn *websocket.Conn) {
	m.clientsMutex.Lock()
	client := &Client{
		mutex:         new(sync.Mutex),
		conn:          conn,
		subscriptions: SubscriptionState,
	}
	m.clients = append(m.clients, client)
	m.clientsMutex.Unlock()

	defer func() {
		m.clientsMutex.Lock()
		defer m.clientsMutex.Unlock()

		for i, c := range m.clients {
			if c == client {
				m.clients = append(m.clients[:i], m.clients[i+1:]...)
				return
			}
		}
	}()

	m.sendState(client)

	for {
		msgType, data, err := client.conn.ReadMessage()
		if err != nil {
			client.mutex.Lock()
			id := client.id
			client.mutex.Unlock()

			if id == "" {
				id = conn.RemoteAddr().String()
			}
			log.Printf("aavideo stream: client %s disconnected: %v", id, err)
			return
		}

		if msgType != websocket.BinaryMessage && msgType != websocket.TextMessage {
			continue
		}

		var controlMsg WebsocketControl
		if err := json.Unmarshal(data, &controlMsg); err != nil {
			log.Println("aavideo stream: failed to unmarshal control message:", err)
			continue
		}

		client.mutex.Lock()
		client.id = controlMsg.ID
		client.subscriptions = Subscription(controlMsg.Subscription)
		client.mutex.Unlock()

		if client.subscriptions.IsSubscribedTo(SubscriptionState) {
			m.sendState(client)
		}
	}
}

func (m *Manager) sendState(client *Client) {
	d, err := json.Marshal(m.State())
	if err != nil {
		log.Println("aavideo stream: error encoding state JSON:", err)
		return
	}

	client.mutex.Lock()
	client.conn.WriteMessage(websocket.BinaryMessage, append([]byte{PacketState}, d...))
	client.mutex.Unlock()
}
