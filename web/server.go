// Package web serves the host's interface table over HTTP and websockets
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/ramborogers/hostaddr/ifaces"
)

// Log tags
var (
	tagAuth         = color.New(color.FgGreen, color.Bold).Sprint("[AUTH]")
	tagDenied       = color.New(color.FgRed, color.Bold).Sprint("[DENIED]")
	tagWSConnect    = color.New(color.FgGreen).Sprint("[WS-CONNECT]")
	tagWSDisconnect = color.New(color.FgYellow).Sprint("[WS-DISCONNECT]")
	tagWSError      = color.New(color.FgRed).Sprint("[WS-ERROR]")
	tagRefresh      = color.New(color.FgCyan).Sprint("[REFRESH]")
)

// Resolver produces a fresh host address result for every request
type Resolver interface {
	Resolve(ctx context.Context) ifaces.Result
}

// Message is what the server pushes over the websocket
type Message struct {
	Type   string         `json:"type"`
	Result *ifaces.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// AddressesResponse is the body of GET /api/addresses
type AddressesResponse struct {
	Addresses []string      `json:"addresses"`
	Source    ifaces.Source `json:"source"`
	Fallback  bool          `json:"fallback"`
}

// Server represents the web interface server
type Server struct {
	port         int
	upgrader     websocket.Upgrader
	clients      map[*websocket.Conn]bool
	clientsMutex sync.RWMutex
	resolver     Resolver
	authToken    string
	version      string
	writeMutex   sync.Map // Per-connection write mutex
}

// NewServer creates a new web interface server
func NewServer(port int, authToken, version string, resolver Resolver) (*Server, error) {
	if authToken == "" {
		return nil, fmt.Errorf("an auth token is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver is nil")
	}
	return &Server{
		port:      port,
		upgrader:  websocket.Upgrader{},
		clients:   make(map[*websocket.Conn]bool),
		resolver:  resolver,
		authToken: authToken,
		version:   version,
	}, nil
}

// authenticateRequest checks if the request has a valid auth token
func (s *Server) authenticateRequest(r *http.Request) bool {
	return r.URL.Query().Get("auth") == s.authToken
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticateRequest(r) {
			log.Printf("%s Access attempt from %s to %s - Invalid token", tagDenied, clientIP(r), r.URL.Path)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		log.Printf("%s Successful access from %s to %s", tagAuth, clientIP(r), r.URL.Path)
		next(w, r)
	}
}

// Handler returns the routes, all behind token authentication
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.authMiddleware(s.handleIndex))
	mux.HandleFunc("/api/interfaces", s.authMiddleware(s.handleInterfaces))
	mux.HandleFunc("/api/addresses", s.authMiddleware(s.handleAddresses))
	mux.HandleFunc("/ws", s.authMiddleware(s.handleWebSocket))
	return mux
}

// Start serves until ctx is cancelled. A positive refresh pushes a new
// snapshot to every websocket client at that interval.
func (s *Server) Start(ctx context.Context, refresh time.Duration) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if refresh > 0 {
		go s.refreshLoop(ctx, refresh)
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) refreshLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// handleIndex serves the full result along with the server version
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	res := s.resolver.Resolve(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version": s.version,
		"result":  res,
	})
}

// handleInterfaces serves the interface table, or 503 when no source
// produced one.
func (s *Server) handleInterfaces(w http.ResponseWriter, r *http.Request) {
	res := s.resolver.Resolve(r.Context())
	if res.Source == ifaces.SourceNone {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": ifaces.ErrUnavailable.Error()})
		return
	}
	table := res.Interfaces
	if table == nil {
		table = ifaces.Table{}
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *Server) handleAddresses(w http.ResponseWriter, r *http.Request) {
	res := s.resolver.Resolve(r.Context())
	writeJSON(w, http.StatusOK, AddressesResponse{
		Addresses: res.Addresses,
		Source:    res.Source,
		Fallback:  res.Fallback,
	})
}

func (s *Server) snapshot(ctx context.Context) Message {
	res := s.resolver.Resolve(ctx)
	return Message{Type: "snapshot", Result: &res}
}

// send writes to one client under its write mutex
func (s *Server) send(conn *websocket.Conn, msg interface{}) error {
	mutex, _ := s.writeMutex.LoadOrStore(conn, &sync.Mutex{})
	writeMutex := mutex.(*sync.Mutex)
	writeMutex.Lock()
	defer writeMutex.Unlock()
	return conn.WriteJSON(msg)
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("%s WebSocket upgrade failed from %s: %v", tagWSError, ip, err)
		return
	}
	defer conn.Close()

	log.Printf("%s New WebSocket connection from %s", tagWSConnect, ip)

	s.clientsMutex.Lock()
	s.clients[conn] = true
	s.clientsMutex.Unlock()

	defer func() {
		s.clientsMutex.Lock()
		delete(s.clients, conn)
		s.writeMutex.Delete(conn)
		s.clientsMutex.Unlock()
		log.Printf("%s Client disconnected: %s", tagWSDisconnect, ip)
	}()

	if err := s.send(conn, s.snapshot(r.Context())); err != nil {
		return
	}

	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("%s %s: %v", tagWSError, ip, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(p, &msg); err != nil {
			log.Printf("Error parsing message: %v", err)
			s.send(conn, Message{Type: "error", Error: "invalid message"})
			continue
		}

		switch msg.Type {
		case "refresh":
			log.Printf("%s Client %s requested a refresh", tagRefresh, ip)
			if err := s.send(conn, s.snapshot(r.Context())); err != nil {
				return
			}
		default:
			s.send(conn, Message{Type: "error", Error: fmt.Sprintf("unknown message type %q", msg.Type)})
		}
	}
}

// Clients returns the number of connected websocket clients
func (s *Server) Clients() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

// Refresh resolves once and pushes the snapshot to every client
func (s *Server) Refresh(ctx context.Context) {
	s.BroadcastUpdate(s.snapshot(ctx))
}

// BroadcastUpdate sends an update to all connected WebSocket clients
func (s *Server) BroadcastUpdate(update interface{}) {
	s.clientsMutex.RLock()
	clients := make([]*websocket.Conn, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.clientsMutex.RUnlock()

	for _, client := range clients {
		if err := s.send(client, update); err != nil {
			log.Printf("Failed to send update to client: %v", err)
			s.clientsMutex.Lock()
			delete(s.clients, client)
			s.writeMutex.Delete(client)
			s.clientsMutex.Unlock()
			client.Close()
		}
	}
}
