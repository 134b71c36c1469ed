package proxy

import (
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// handleConnect tunnels HTTPS CONNECT traffic without interception.
// There is no MITM CA here: encrypted exchanges pass through unrecorded.
func (p *Proxy) handleConnect(w http.ResponseWriter, r *http.Request) {
	host := r.Host
	if !strings.Contains(host, ":") {
		host += ":443"
	}

	targetConn, err := net.DialTimeout("tcp", host, 30*time.Second)
	if err != nil {
		p.log.Warn("connecting to tunnel target", "host", host, "error", err)
		http.Error(w, "Error connecting to target", http.StatusBadGateway)
		return
	}

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		_ = targetConn.Close()
		http.Error(w, "HTTP server does not support hijacking", http.StatusInternalServerError)
		return
	}

	clientConn, _, err := hijacker.Hijack()
	if err != nil {
		p.log.Warn("hijacking connection", "error", err)
		_ = targetConn.Close()
		return
	}

	if _, err := clientConn.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n")); err != nil {
		_ = clientConn.Close()
		_ = targetConn.Close()
		return
	}

	p.log.Debug("tunneling", "host", host)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(targetConn, clientConn)
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(clientConn, targetConn)
	}()
	wg.Wait()

	_ = clientConn.Close()
	_ = targetConn.Close()
}
