package dispatcher

import (
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
)

// HTTPPool round-robins removal requests across a fixed set of fasthttp
// clients with warm keep-alive connections, so the first ban of an attack
// does not pay TLS handshake latency.
type HTTPPool struct {
	clients []*fasthttp.Client
	next    uint32
}

func NewHTTPPool(size int) *HTTPPool {
	if size <= 0 {
		size = 4
	}

	clients := make([]*fasthttp.Client, size)
	for i := range clients {
		clients[i] = &fasthttp.Client{
			MaxConnsPerHost:     16,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         5 * time.Second,
			WriteTimeout:        5 * time.Second,
		}
	}

	return &HTTPPool{clients: clients}
}

func (p *HTTPPool) GetClient() *fasthttp.Client {
	n := atomic.AddUint32(&p.next, 1)
	return p.clients[n%uint32(len(p.clients))]
}

// Warmup issues a HEAD request per client against the API host to open
// connections before they are needed.
func (p *HTTPPool) Warmup(baseURL string) {
	for _, client := range p.clients {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		req.SetRequestURI(baseURL)
		req.Header.SetMethod(fasthttp.MethodHead)
		client.DoTimeout(req, resp, 3*time.Second)
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}
}
