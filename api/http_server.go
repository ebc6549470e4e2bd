package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kutluhann/kademlia-routing/constants"
	"github.com/kutluhann/kademlia-routing/dht"
	"github.com/kutluhann/kademlia-routing/id_tools"
)

// StatusResponse represents node status information
type StatusResponse struct {
	NodeID     string `json:"node_id"`
	KnownPeers int    `json:"known_peers"`
	BucketSize int    `json:"bucket_size"`
	Buckets    []int  `json:"buckets"`
}

// BucketInfo is one non-empty bucket, least recently seen first.
type BucketInfo struct {
	Index    int           `json:"index"`
	Contacts []dht.Contact `json:"contacts"`
}

type PeersResponse struct {
	NodeID  string       `json:"node_id"`
	Buckets []BucketInfo `json:"buckets"`
}

type ClosestResponse struct {
	Target   string        `json:"target"`
	Contacts []dht.Contact `json:"contacts"`
}

// InsertRequest represents the JSON payload for POST /peers
type InsertRequest struct {
	ID   string `json:"id"`
	IP   string `json:"ip"`
	Port int    `json:"port"`
	Name string `json:"name,omitempty"`
}

type InsertResponse struct {
	Outcome   string       `json:"outcome"`
	Candidate *dht.Contact `json:"candidate,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HTTPServer exposes a read-mostly view of the routing table.
type HTTPServer struct {
	Table  *dht.SyncTable
	Port   int
	logger *zap.Logger
	server *http.Server
}

func NewHTTPServer(table *dht.SyncTable, port int, logger *zap.Logger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &HTTPServer{
		Table:  table,
		Port:   port,
		logger: logger.Named("api"),
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the routes without binding a socket.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /peers", s.handlePeers)
	mux.HandleFunc("POST /peers", s.handleInsert)
	mux.HandleFunc("GET /closest", s.handleClosest)
	return mux
}

// Start listens on Port until Shutdown is called.
func (s *HTTPServer) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener until Shutdown is called. Shutdown
// may come first, in which case Serve closes listener and returns nil.
func (s *HTTPServer) Serve(listener net.Listener) error {
	s.logger.Info("starting http server",
		zap.Stringer("addr", listener.Addr()),
		zap.Strings("endpoints", []string{"GET /status", "GET /health", "GET /peers", "POST /peers", "GET /closest"}))

	err := s.server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	buckets := s.Table.Buckets()
	indexes := make([]int, 0, len(buckets))
	for i := range buckets {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	writeJSON(w, http.StatusOK, StatusResponse{
		NodeID:     s.Table.LocalID().String(),
		KnownPeers: s.Table.Len(),
		BucketSize: s.Table.BucketSize(),
		Buckets:    indexes,
	})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *HTTPServer) handlePeers(w http.ResponseWriter, r *http.Request) {
	buckets := s.Table.Buckets()
	resp := PeersResponse{
		NodeID:  s.Table.LocalID().String(),
		Buckets: make([]BucketInfo, 0, len(buckets)),
	}
	for i, contacts := range buckets {
		resp.Buckets = append(resp.Buckets, BucketInfo{Index: i, Contacts: contacts})
	}
	sort.Slice(resp.Buckets, func(a, b int) bool {
		return resp.Buckets[a].Index < resp.Buckets[b].Index
	})

	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleClosest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	target, err := id_tools.ParseNodeID(query.Get("target"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	n := constants.DefaultClosestCount
	if raw := query.Get("n"); raw != "" {
		n, err = strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid n %q", raw))
			return
		}
	}

	contacts := s.Table.Closest(target, n)
	s.logger.Debug("closest query", zap.Stringer("target", target), zap.Int("n", n), zap.Int("found", len(contacts)))

	writeJSON(w, http.StatusOK, ClosestResponse{
		Target:   target.String(),
		Contacts: contacts,
	})
}

func (s *HTTPServer) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req InsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}

	id, err := id_tools.ParseNodeID(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if net.ParseIP(req.IP) == nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid ip %q", req.IP))
		return
	}
	if req.Port < 1 || req.Port > 65535 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid port %d", req.Port))
		return
	}

	contact := dht.NewContact(id, req.IP, req.Port)
	contact.Name = req.Name

	result, err := s.Table.Insert(contact)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp := InsertResponse{Outcome: result.Outcome.String()}
	status := http.StatusOK
	switch result.Outcome {
	case dht.Inserted:
		status = http.StatusCreated
	case dht.Full:
		candidate := result.Candidate
		resp.Candidate = &candidate
		status = http.StatusConflict
	}

	s.logger.Info("peer submitted",
		zap.Stringer("contact", contact),
		zap.Stringer("outcome", result.Outcome))

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
