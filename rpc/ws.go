package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/djkazic/boltz-backend/types"
)

const (
	subscribeSwapStatus = "swap_subscribeStatus"

	// pollInterval is how often subscribeSwapStatus re-reads the swap row
	// while waiting for its status to change; the nursery itself has no
	// push channel per swap, only the fan-in event stream the dispatch
	// loop already consumes.
	pollInterval = 2 * time.Second
)

var (
	errInvalidMethod = errors.New("rpc: invalid websocket method")
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

type wsServer struct {
	ctx context.Context
	svc *SwapService
}

func newWsServer(ctx context.Context, svc *SwapService) *wsServer {
	return &wsServer{ctx: ctx, svc: svc}
}

type wsRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// ServeHTTP upgrades the connection and services swap_subscribeStatus
// requests until the client disconnects or the swap reaches a terminal
// status.
func (s *wsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("failed to upgrade connection to websocket: %s", err)
		return
	}
	defer conn.Close() //nolint:errcheck

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("failed to read websocket message: %s", err)
			return
		}

		var req wsRequest
		if err := json.Unmarshal(message, &req); err != nil {
			_ = writeWsError(conn, err)
			continue
		}

		if err := s.handleRequest(conn, &req); err != nil {
			_ = writeWsError(conn, err)
		}
	}
}

func (s *wsServer) handleRequest(conn *websocket.Conn, req *wsRequest) error {
	switch req.Method {
	case subscribeSwapStatus:
		var params SwapStatusRequest
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return err
		}
		return s.subscribeSwapStatus(conn, params.Kind, params.ID)
	default:
		return errInvalidMethod
	}
}

// subscribeSwapStatus writes the swap's status every time a poll observes
// a change, and closes the subscription once the status is terminal.
func (s *wsServer) subscribeSwapStatus(conn *websocket.Conn, kind types.SwapKind, id string) error {
	var last types.Status
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		status, err := s.svc.lookupStatus(kind, id)
		if err != nil {
			return err
		}
		if status != last {
			if err := writeWsResponse(conn, SwapStatusResponse{Status: string(status)}); err != nil {
				return err
			}
			last = status
		}
		if types.IsTerminal(kind, status) {
			return nil
		}

		select {
		case <-ticker.C:
		case <-s.ctx.Done():
			return s.ctx.Err()
		}
	}
}

func writeWsResponse(conn *websocket.Conn, result interface{}) error {
	return conn.WriteJSON(struct {
		Result interface{} `json:"result"`
	}{Result: result})
}

func writeWsError(conn *websocket.Conn, err error) error {
	return conn.WriteJSON(struct {
		Error string `json:"error"`
	}{Error: err.Error()})
}
