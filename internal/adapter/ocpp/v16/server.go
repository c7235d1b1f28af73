package v16

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/observability/telemetry"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:  func(r *http.Request) bool { return true },
	Subprotocols: []string{"ocpp1.6", "ocpp1.6j", "ocpp1.6-json"},
}

// OCPP 1.6 message types (spec §4.1).
const (
	CallMessage       = 2
	CallResultMessage = 3
	CallErrorMessage  = 4
)

// DefaultCommandTimeout bounds an outbound Call awaiting the station's
// CallResult (spec §5): the bus-command publish already returned, this
// timeout only governs the actor's own correlation bookkeeping and log.
const DefaultCommandTimeout = 30 * time.Second

// callResponse is what resolves a pending outbound Call: either a
// CallResult payload or a CallError's (code, description).
type callResponse struct {
	payload json.RawMessage
	errCode string
	errDesc string
}

// actor owns a single station's WebSocket exclusively: one goroutine reads
// inbound Calls from the station, one goroutine drains cmd:<station_id>
// and turns bus commands into outbound Calls (spec §4.1/§5). It is the
// sole writer of the connection and the sole subscriber of its cmd topic.
type actor struct {
	stationID string
	conn      *websocket.Conn
	writeMu   sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan callResponse

	cmdSub ports.BusSubscription
	cancel context.CancelFunc
	log    *zap.Logger
}

func (a *actor) writeFrame(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	return a.conn.WriteMessage(websocket.TextMessage, payload)
}

// sendCall writes an outbound Call and blocks for its CallResult/CallError
// up to DefaultCommandTimeout, purely for logging: the bus publish that
// triggered this has already returned to its caller.
func (a *actor) sendCall(action string, payload interface{}) {
	telemetry.RecordOCPPMessage(action, false)

	id := uuid.New().String()
	ch := make(chan callResponse, 1)

	a.pendingMu.Lock()
	a.pending[id] = ch
	a.pendingMu.Unlock()
	defer func() {
		a.pendingMu.Lock()
		delete(a.pending, id)
		a.pendingMu.Unlock()
	}()

	if err := a.writeFrame([]interface{}{CallMessage, id, action, payload}); err != nil {
		a.log.Warn("ocpp: failed to write outbound call", zap.String("action", action), zap.Error(err))
		return
	}

	select {
	case resp := <-ch:
		if resp.errCode != "" {
			a.log.Warn("ocpp: outbound call returned CallError", zap.String("action", action), zap.String("code", resp.errCode), zap.String("description", resp.errDesc))
		} else {
			a.log.Debug("ocpp: outbound call acknowledged", zap.String("action", action))
		}
	case <-time.After(DefaultCommandTimeout):
		a.log.Warn("ocpp: outbound call timed out", zap.String("action", action), zap.String("station_id", a.stationID))
	}
}

func (a *actor) resolve(uniqueID string, resp callResponse) {
	a.pendingMu.Lock()
	ch, ok := a.pending[uniqueID]
	a.pendingMu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- resp:
	default:
	}
}

// Server is the OCPP 1.6-J actor registry and WebSocket acceptor (spec
// §4.1), grounded on the teacher's legacy v16 server with the actor model,
// outbound command dispatch and binding algorithm from spec §4.1/§4.2/§5.
type Server struct {
	handlers *Handlers
	stations ports.StationRepository
	bus      ports.Bus
	verifyAPIKeys bool
	log      *zap.Logger

	mu     sync.RWMutex
	actors map[string]*actor

	shuttingDown bool
}

// NewServer constructs the acceptor without its Handlers: the charging
// engine and availability tracker both depend on this Server's
// CommandService (NewCommandService(bus, srv)), so Handlers — which in turn
// depends on them — is wired in afterwards via SetHandlers to break the
// cycle.
func NewServer(
	stations ports.StationRepository,
	bus ports.Bus,
	verifyAPIKeys bool,
	log *zap.Logger,
) *Server {
	return &Server{
		stations:      stations,
		bus:           bus,
		verifyAPIKeys: verifyAPIKeys,
		actors:        make(map[string]*actor),
		log:           log,
	}
}

// SetHandlers wires the inbound-action dispatcher. Must be called before
// Start.
func (s *Server) SetHandlers(h *Handlers) {
	s.handlers = h
}

// Start runs the OCPP 1.6-J WebSocket acceptor on its own port, independent
// of the Fiber HTTP app (spec §4.1 keeps the charger-facing surface on a
// dedicated listener, as the teacher's legacy server already did).
func (s *Server) Start(port int) error {
	mux := http.NewServeMux()
	// spec §6 (External Interfaces): both /ws/{station_id} and
	// /ocpp/{station_id} must resolve to the same handler.
	mux.HandleFunc("/ws/", s.handleWebSocket)
	mux.HandleFunc("/ocpp/", s.handleWebSocket)

	addr := fmt.Sprintf(":%d", port)
	s.log.Info("ocpp: starting 1.6-J websocket acceptor", zap.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}

// Stop implements the graceful-shutdown contract of spec §5: stop accepting
// new commands for connected stations and send each a close frame (1001).
func (s *Server) Stop() {
	s.mu.Lock()
	s.shuttingDown = true
	actors := make([]*actor, 0, len(s.actors))
	for _, a := range s.actors {
		actors = append(actors, a)
	}
	s.mu.Unlock()

	for _, a := range actors {
		_ = a.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(1001, "server shutting down"),
			time.Now().Add(time.Second))
		a.cancel()
	}
	s.log.Info("ocpp: acceptor stopped", zap.Int("stations_notified", len(actors)))
}

func (s *Server) IsConnected(stationID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.actors[stationID]
	return ok
}

func (s *Server) ConnectedStations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.actors))
	for id := range s.actors {
		out = append(out, id)
	}
	return out
}

// handleWebSocket implements Accept(station_id, ws) from spec §4.1: it
// authenticates the station, negotiates an OCPP 1.6 subprotocol (or
// accepts the bare-websocket compatibility path) and spawns its actor.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	stationID := r.URL.Path
	for _, prefix := range []string{"/ws/", "/ocpp/"} {
		if strings.HasPrefix(stationID, prefix) {
			stationID = strings.TrimPrefix(stationID, prefix)
			break
		}
	}
	stationID = strings.Trim(stationID, "/")
	if stationID == "" {
		http.Error(w, "missing station id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	station, err := s.stations.FindByID(ctx, stationID)
	if err != nil {
		s.log.Error("ocpp: failed to look up station", zap.String("station_id", stationID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if station == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if station.AdminStatus == domain.StationAdminStatusInactive {
		http.Error(w, "station_inactive", http.StatusForbidden)
		return
	}
	if s.verifyAPIKeys && station.APIKey != "" {
		if !validAPIKey(r, station) {
			http.Error(w, "bad_apikey", http.StatusUnauthorized)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("ocpp: websocket upgrade failed", zap.String("station_id", stationID), zap.Error(err))
		return
	}

	actorCtx, cancel := context.WithCancel(context.Background())
	a := &actor{
		stationID: stationID,
		conn:      conn,
		pending:   make(map[string]chan callResponse),
		cancel:    cancel,
		log:       s.log.With(zap.String("station_id", stationID)),
	}

	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.actors[stationID] = a
	s.mu.Unlock()

	a.log.Info("ocpp: station connected")
	telemetry.OCPPConnectionsActive.Inc()
	defer telemetry.OCPPConnectionsActive.Dec()

	if err := s.bus.MarkOnline(actorCtx, stationID); err != nil {
		a.log.Warn("ocpp: failed to mark station online", zap.Error(err))
	}

	sub, err := s.bus.Subscribe(actorCtx, "cmd:"+stationID)
	if err != nil {
		a.log.Error("ocpp: failed to subscribe to command topic", zap.Error(err))
	} else {
		a.cmdSub = sub
		s.bus.NotifySubscribed(stationID)
		go s.runCommandLoop(actorCtx, a, sub)
	}

	s.runReadLoop(actorCtx, a)

	cancel()
	if a.cmdSub != nil {
		a.cmdSub.Close()
	}
	conn.Close()

	s.mu.Lock()
	delete(s.actors, stationID)
	s.mu.Unlock()

	if err := s.bus.MarkOffline(context.Background(), stationID); err != nil {
		a.log.Warn("ocpp: failed to mark station offline", zap.Error(err))
	}
	if payload, err := json.Marshal(map[string]string{"station_id": stationID, "event": "offline"}); err == nil {
		_ = s.bus.Publish(context.Background(), "station_events:"+stationID, payload)
	}
	a.log.Info("ocpp: station disconnected")
}

func validAPIKey(r *http.Request, station *domain.Station) bool {
	if station.APIKeyExpiresAt != nil && station.APIKeyExpiresAt.Before(time.Now().UTC()) {
		return false
	}
	presented := r.URL.Query().Get("token")
	if presented == "" {
		auth := r.Header.Get("Authorization")
		presented = strings.TrimPrefix(auth, "Bearer ")
	}
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(station.APIKey)) == 1
}

// runCommandLoop is the sole consumer of cmd:<station_id>; it is the only
// path from a bus-published command to an outbound OCPP Call (spec §4.1).
func (s *Server) runCommandLoop(ctx context.Context, a *actor, sub ports.BusSubscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub.Channel():
			if !ok {
				return
			}
			var env commandEnvelope
			if err := json.Unmarshal(payload, &env); err != nil {
				a.log.Warn("ocpp: failed to decode command envelope", zap.Error(err))
				continue
			}
			s.dispatchCommand(a, env)
		}
	}
}

func (s *Server) dispatchCommand(a *actor, env commandEnvelope) {
	switch env.Action {
	case "RemoteStartTransaction":
		a.sendCall("RemoteStartTransaction", map[string]interface{}{
			"connectorId": env.ConnectorID,
			"idTag":       env.IdTag,
		})
	case "RemoteStopTransaction":
		a.sendCall("RemoteStopTransaction", map[string]interface{}{
			"transactionId": env.TransactionID,
		})
	case "Reset":
		a.sendCall("Reset", map[string]interface{}{"type": env.ResetType})
	case "UnlockConnector":
		a.sendCall("UnlockConnector", map[string]interface{}{"connectorId": env.ConnectorID})
	case "ChangeAvailability":
		a.sendCall("ChangeAvailability", map[string]interface{}{
			"connectorId": env.ConnectorID,
			"type":        env.AvailabilityType,
		})
	case "ChangeConfiguration":
		a.sendCall("ChangeConfiguration", map[string]interface{}{"key": env.Key, "value": env.Value})
	case "GetConfiguration":
		a.sendCall("GetConfiguration", map[string]interface{}{"key": env.Keys})
	case "GetDiagnostics":
		a.sendCall("GetDiagnostics", map[string]interface{}{"location": env.Location})
	case "ClearCache":
		a.sendCall("ClearCache", map[string]interface{}{})
	case "TriggerMessage":
		a.sendCall("TriggerMessage", map[string]interface{}{"requestedMessage": env.RequestedMessage})
	default:
		a.log.Warn("ocpp: unknown outbound command", zap.String("action", env.Action))
	}
}

// runReadLoop is the sole reader of the station's socket: it serialises
// inbound Calls (dispatched to Handlers) and resolves CallResult/CallError
// frames against this actor's own pending outbound Calls (spec §5).
func (s *Server) runReadLoop(ctx context.Context, a *actor) {
	for {
		_, raw, err := a.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				a.log.Warn("ocpp: websocket read error", zap.Error(err))
			}
			return
		}

		var msg []json.RawMessage
		if err := json.Unmarshal(raw, &msg); err != nil || len(msg) < 3 {
			a.log.Warn("ocpp: malformed frame", zap.Error(err))
			continue
		}

		var msgType int
		var uniqueID string
		if err := json.Unmarshal(msg[0], &msgType); err != nil {
			continue
		}
		if err := json.Unmarshal(msg[1], &uniqueID); err != nil {
			continue
		}

		switch msgType {
		case CallMessage:
			if len(msg) < 4 {
				continue
			}
			var action string
			if err := json.Unmarshal(msg[2], &action); err != nil {
				continue
			}
			s.handleInboundCall(ctx, a, uniqueID, action, msg[3])
		case CallResultMessage:
			a.resolve(uniqueID, callResponse{payload: msg[2]})
		case CallErrorMessage:
			if len(msg) < 4 {
				continue
			}
			var code, desc string
			_ = json.Unmarshal(msg[2], &code)
			_ = json.Unmarshal(msg[3], &desc)
			a.resolve(uniqueID, callResponse{errCode: code, errDesc: desc})
		}
	}
}

func (s *Server) handleInboundCall(ctx context.Context, a *actor, uniqueID, action string, payload json.RawMessage) {
	result, err := s.handlers.Handle(ctx, a.stationID, action, payload)
	if err != nil {
		if nerr, ok := err.(*NotImplementedError); ok {
			_ = a.writeFrame([]interface{}{CallErrorMessage, uniqueID, "NotImplemented", nerr.Error(), map[string]string{}})
			return
		}
		a.log.Error("ocpp: handler error", zap.String("action", action), zap.Error(err))
		_ = a.writeFrame([]interface{}{CallErrorMessage, uniqueID, "InternalError", err.Error(), map[string]string{}})
		return
	}
	if err := a.writeFrame([]interface{}{CallResultMessage, uniqueID, result}); err != nil {
		a.log.Error("ocpp: failed to write call result", zap.String("action", action), zap.Error(err))
	}
}
