package network

import (
	"context"
	"sort"
	"sync"
)

// Interceptor inspects every frame before delivery. Returning nil drops the
// message; returning a different message delivers that instead.
type Interceptor func(msg *Message) *Message

// LocalNetwork connects in-process parties through buffered inboxes. Every
// message is serialized on send and parsed on delivery, so it exercises
// the same framing a socket transport would.
type LocalNetwork struct {
	mu          sync.RWMutex
	inboxes     map[int]chan []byte
	closed      map[int]chan struct{}
	interceptor Interceptor
}

// NewLocalNetwork creates a network for the given party indices.
func NewLocalNetwork(parties []int) *LocalNetwork {
	n := len(parties)
	ln := &LocalNetwork{
		inboxes: make(map[int]chan []byte, n),
		closed:  make(map[int]chan struct{}, n),
	}
	for _, id := range parties {
		// Each party receives at most a handful of messages per peer per session
		ln.inboxes[id] = make(chan []byte, 8*n*n)
		ln.closed[id] = make(chan struct{})
	}
	return ln
}

// SetInterceptor installs a hook applied to every outgoing message.
func (ln *LocalNetwork) SetInterceptor(i Interceptor) {
	ln.mu.Lock()
	defer ln.mu.Unlock()
	ln.interceptor = i
}

// Parties returns the sorted party indices on the network.
func (ln *LocalNetwork) Parties() []int {
	ln.mu.RLock()
	defer ln.mu.RUnlock()
	ids := make([]int, 0, len(ln.inboxes))
	for id := range ln.inboxes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Transport returns the endpoint of party id.
func (ln *LocalNetwork) Transport(id int) (Transport, error) {
	ln.mu.RLock()
	defer ln.mu.RUnlock()
	if _, ok := ln.inboxes[id]; !ok {
		return nil, ErrUnknownParty
	}
	return &localTransport{net: ln, id: id}, nil
}

func (ln *LocalNetwork) closeParty(id int) {
	ln.mu.Lock()
	defer ln.mu.Unlock()
	select {
	case <-ln.closed[id]:
	default:
		close(ln.closed[id])
	}
}

func (ln *LocalNetwork) deliver(ctx context.Context, to int, msg *Message) error {
	ln.mu.RLock()
	inbox, ok := ln.inboxes[to]
	done := ln.closed[to]
	intercept := ln.interceptor
	ln.mu.RUnlock()
	if !ok {
		return ErrUnknownParty
	}

	if intercept != nil {
		if msg = intercept(msg.Clone()); msg == nil {
			return nil
		}
	}

	frame, err := msg.Serialize()
	if err != nil {
		return err
	}

	select {
	case <-done:
		// A closed party silently drops traffic like a dead socket would
		return nil
	case inbox <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type localTransport struct {
	net *LocalNetwork
	id  int

	mu       sync.Mutex
	sequence uint64
	closed   bool
}

func (t *localTransport) nextSequence() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sequence++
	return t.sequence
}

func (t *localTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *localTransport) Send(ctx context.Context, partyID int, msg *Message) error {
	if t.isClosed() {
		return ErrTransportClosed
	}
	if partyID == t.id {
		return ErrInvalidPartyID
	}

	out := msg.Clone()
	out.From = t.id
	out.To = partyID
	out.Sequence = t.nextSequence()
	return t.net.deliver(ctx, partyID, out)
}

func (t *localTransport) Broadcast(ctx context.Context, msg *Message) error {
	if t.isClosed() {
		return ErrTransportClosed
	}

	for _, id := range t.net.Parties() {
		if id == t.id {
			continue
		}
		out := msg.Clone()
		out.From = t.id
		out.To = BroadcastID
		out.Sequence = t.nextSequence()
		if err := t.net.deliver(ctx, id, out); err != nil {
			return err
		}
	}
	return nil
}

func (t *localTransport) Receive(ctx context.Context) (*Message, error) {
	t.net.mu.RLock()
	inbox := t.net.inboxes[t.id]
	done := t.net.closed[t.id]
	t.net.mu.RUnlock()

	select {
	case frame := <-inbox:
		return DeserializeMessage(frame)
	case <-done:
		return nil, ErrTransportClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *localTransport) LocalPartyID() int {
	return t.id
}

func (t *localTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.net.closeParty(t.id)
	return nil
}
