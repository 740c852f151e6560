package httpclient

import (
	"net/http"
	"sync"
	"time"
)

// Pool manages a bounded set of reusable HTTP clients for outbound calls
// to the code delivery gateways.
type Pool struct {
	clients chan *http.Client
	factory func() *http.Client
	mu      sync.RWMutex
	closed  bool
}

// NewPool creates a pool pre-populated with maxClients clients.
func NewPool(maxClients int) *Pool {
	pool := &Pool{
		clients: make(chan *http.Client, maxClients),
		factory: newGatewayClient,
	}
	for i := 0; i < maxClients; i++ {
		pool.clients <- pool.factory()
	}
	return pool
}

func newGatewayClient() *http.Client {
	return &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Get retrieves a client from the pool, creating one if the pool is empty.
func (p *Pool) Get() *http.Client {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return p.factory()
	}

	select {
	case client := <-p.clients:
		return client
	default:
		return p.factory()
	}
}

// Put returns a client to the pool; full pools discard the client.
func (p *Pool) Put(client *http.Client) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return
	}

	select {
	case p.clients <- client:
	default:
	}
}

// Close marks the pool closed and drains pooled clients.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	close(p.clients)
	for range p.clients {
	}
}

var (
	globalPool *Pool
	once       sync.Once
)

// GetGlobalPool returns the shared process-wide pool.
func GetGlobalPool() *Pool {
	once.Do(func() {
		globalPool = NewPool(10)
	})
	return globalPool
}
