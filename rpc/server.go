// Package rpc provides the HTTP server for incoming JSON-RPC and websocket
// requests to boltzd from the local host, as described by spec.md's ambient
// outer surface: a single "swap" namespace backed directly by the
// repositories the nursery itself mutates.
package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	gorillarpc "github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
	logging "github.com/ipfs/go-log"

	"github.com/djkazic/boltz-backend/swap"
)

const (
	// SwapNamespace is the sole JSON-RPC namespace this server registers.
	SwapNamespace = "swap"
)

var log = logging.Logger("rpc")

// Server is the JSON-RPC and websocket HTTP server.
type Server struct {
	ctx        context.Context
	listener   net.Listener
	httpServer *http.Server
}

// Config wires the repositories the SwapService reads from. Every
// repository is the same instance the nursery itself was configured with
// (spec.md §3 "Ownership": the persisted rows are the single source of
// truth, the RPC server is just another reader).
type Config struct {
	Ctx context.Context

	Address string // "IP:port"

	Swaps        swap.SwapRepository
	ReverseSwaps swap.ReverseSwapRepository
	ChainSwaps   swap.ChainSwapRepository
}

// NewServer constructs and binds the server, but does not yet accept
// connections; call Start for that.
func NewServer(cfg *Config) (*Server, error) {
	rpcServer := gorillarpc.NewServer()
	rpcServer.RegisterCodec(json2.NewCodec(), "application/json")

	serverCtx, serverCancel := context.WithCancel(cfg.Ctx)

	swapService := NewSwapService(cfg.Swaps, cfg.ReverseSwaps, cfg.ChainSwaps)
	if err := rpcServer.RegisterService(swapService, SwapNamespace); err != nil {
		serverCancel()
		return nil, err
	}

	wsServer := newWsServer(serverCtx, swapService)

	lc := net.ListenConfig{}
	ln, err := lc.Listen(serverCtx, "tcp", cfg.Address)
	if err != nil {
		serverCancel()
		return nil, err
	}

	r := mux.NewRouter()
	r.Handle("/", rpcServer)
	r.Handle("/ws", wsServer)

	headersOk := handlers.AllowedHeaders([]string{"content-type"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "HEAD", "POST", "PUT", "OPTIONS"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	server := &http.Server{
		Addr:              ln.Addr().String(),
		ReadHeaderTimeout: time.Second,
		Handler:           handlers.CORS(headersOk, methodsOk, originsOk)(r),
		BaseContext: func(net.Listener) context.Context {
			return serverCtx
		},
	}

	return &Server{ctx: serverCtx, listener: ln, httpServer: server}, nil
}

// HTTPURL returns the URL used for JSON-RPC requests.
func (s *Server) HTTPURL() string {
	return fmt.Sprintf("http://%s", s.httpServer.Addr)
}

// WsURL returns the URL used for websocket subscriptions.
func (s *Server) WsURL() string {
	return fmt.Sprintf("ws://%s/ws", s.httpServer.Addr)
}

// Start serves JSON-RPC and websocket requests until ctx is cancelled.
func (s *Server) Start() error {
	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}

	log.Infof("starting RPC server on %s", s.HTTPURL())
	log.Infof("starting websocket server on %s", s.WsURL())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-s.ctx.Done():
		err := s.httpServer.Shutdown(s.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warnf("http server shutdown errored: %s", err)
		}
		return s.ctx.Err()
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("RPC server failed: %s", err)
		} else {
			log.Info("RPC server shut down")
		}
		return err
	}
}

// Stop gracefully shuts the server down, servicing already-connected
// clients until they disconnect.
func (s *Server) Stop() error {
	return s.httpServer.Shutdown(s.ctx)
}
