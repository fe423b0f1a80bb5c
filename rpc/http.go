package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"streamledger/core/events"
	"streamledger/core/ledger"
	"streamledger/native/common"
	"streamledger/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	requestIDHeader = "X-Request-ID"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeForbidden      = -32003
	codeNotFound       = -32004
	codeConflict       = -32009
	codeInsufficient   = -32012
	codeTransferFailed = -32013
	codeRateLimited    = -32020
	codeModulePaused   = -32030
)

// Config wires a Server.
type Config struct {
	Ledger      *ledger.Ledger
	Feed        *events.Feed
	Auth        AuthConfig
	RateLimit   RateLimit
	Logger      *slog.Logger
	ReadTimeout time.Duration
}

type Server struct {
	ledger  *ledger.Ledger
	feed    *events.Feed
	auth    *Authenticator
	limiter *RateLimiter
	logger  *slog.Logger
	methods map[string]methodHandler
	timeout time.Duration
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Ledger == nil {
		return nil, errors.New("rpc: ledger required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &Server{
		ledger:  cfg.Ledger,
		feed:    cfg.Feed,
		auth:    NewAuthenticator(cfg.Auth, logger),
		limiter: NewRateLimiter(cfg.RateLimit),
		logger:  logger,
		timeout: timeout,
	}
	s.methods = s.routes()
	return s, nil
}

// Handler returns the HTTP surface: the JSON-RPC endpoint, the committed
// event feed and a health probe.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Use(s.limiter.Middleware)
		r.Post("/rpc", s.handle)
		r.Post("/", s.handle)
		if s.feed != nil {
			r.Get("/events", s.handleEventsWS)
		}
	})
	return otelhttp.NewHandler(r, "streamledger.rpc")
}

// Start serves the API until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.timeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting JSON-RPC server", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if status <= 0 {
		status = http.StatusBadRequest
	}
	w.WriteHeader(status)
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}
	handler, ok := s.methods[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}

	result, err := handler(r.Context(), req)
	status := http.StatusOK
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			status = http.StatusBadRequest
			writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		} else {
			var code int
			status, code = classify(err)
			if status >= http.StatusInternalServerError {
				s.logger.Error("rpc: request failed",
					slog.String("method", req.Method),
					slog.String("request_id", requestIDFrom(r)),
					slog.Any("error", err))
			}
			writeError(w, status, req.ID, code, err.Error(), categoryName(err))
		}
	} else {
		writeResult(w, req.ID, result)
	}
	module, method := splitMethod(req.Method)
	observability.ModuleMetrics().Observe(module, method, status, time.Since(start))
}

// classify maps a ledger failure onto an HTTP status and JSON-RPC code.
func classify(err error) (int, int) {
	if errors.Is(err, ledger.ErrNoCaller) {
		return http.StatusUnauthorized, codeUnauthorized
	}
	switch common.Category(err) {
	case common.ErrModulePaused:
		return http.StatusServiceUnavailable, codeModulePaused
	case common.ErrNotAuthorized:
		return http.StatusForbidden, codeForbidden
	case common.ErrNotFound:
		return http.StatusNotFound, codeNotFound
	case common.ErrAlreadyExists, common.ErrInactive:
		return http.StatusConflict, codeConflict
	case common.ErrInvalidAmount, common.ErrInvalidDuration, common.ErrInvalidField:
		return http.StatusBadRequest, codeInvalidParams
	case common.ErrInsufficientPoints, common.ErrInsufficientFunds:
		return http.StatusUnprocessableEntity, codeInsufficient
	case common.ErrTransferFailed:
		return http.StatusUnprocessableEntity, codeTransferFailed
	default:
		return http.StatusInternalServerError, codeServerError
	}
}

func categoryName(err error) interface{} {
	category := common.Category(err)
	if category == nil {
		return nil
	}
	return map[string]string{"category": category.Error()}
}

func splitMethod(method string) (string, string) {
	module, name, ok := strings.Cut(method, "_")
	if !ok {
		return "rpc", method
	}
	return module, name
}

type requestIDKey struct{}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}
