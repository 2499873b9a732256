package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"

	"go.uber.org/zap"

	"guestbook/internal/auth"
	"guestbook/internal/metrics"
)

type Kind int

const (
	Query Kind = iota
	Mutation
)

func (k Kind) method() string {
	if k == Mutation {
		return http.MethodPost
	}
	return http.MethodGet
}

// Call is one invocation of a named procedure.
type Call struct {
	Procedure string
	Kind      Kind
	Input     json.RawMessage
}

// Bind decodes the call input into v.
func (c *Call) Bind(v any) error {
	if len(c.Input) == 0 {
		return NewError(CodeBadRequest, "missing input", nil)
	}
	if err := json.Unmarshal(c.Input, v); err != nil {
		return NewError(CodeBadRequest, "malformed input", err)
	}
	return nil
}

type Handler func(ctx context.Context, call *Call) (any, error)

type Middleware func(Handler) Handler

type procedure struct {
	kind    Kind
	handler Handler
}

// Router dispatches calls to registered procedures. Middleware added with Use
// wraps only the procedures registered after it, so a router can expose public
// procedures first and guard everything that follows.
type Router struct {
	procs  map[string]procedure
	chain  []Middleware
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{procs: make(map[string]procedure), logger: logger}
}

func (r *Router) Use(mw Middleware) *Router {
	r.chain = append(r.chain, mw)
	return r
}

func (r *Router) Query(name string, h Handler) *Router {
	return r.register(name, Query, h)
}

func (r *Router) Mutation(name string, h Handler) *Router {
	return r.register(name, Mutation, h)
}

func (r *Router) register(name string, kind Kind, h Handler) *Router {
	if _, dup := r.procs[name]; dup {
		panic("rpc: duplicate procedure " + name)
	}
	for i := len(r.chain) - 1; i >= 0; i-- {
		h = r.chain[i](h)
	}
	r.procs[name] = procedure{kind: kind, handler: h}
	return r
}

// Call invokes a procedure in process.
func (r *Router) Call(ctx context.Context, name string, kind Kind, input json.RawMessage) (any, error) {
	p, ok := r.procs[name]
	if !ok {
		return nil, NewError(CodeNotFound, "no procedure "+name, nil)
	}
	if p.kind != kind {
		return nil, NewError(CodeMethodNotSupported, name+" must be called with "+p.kind.method(), nil)
	}
	return p.handler(ctx, &Call{Procedure: name, Kind: kind, Input: input})
}

type envelope struct {
	Result *result    `json:"result,omitempty"`
	Error  *errorBody `json:"error,omitempty"`
}

type result struct {
	Data any `json:"data"`
}

type errorBody struct {
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"httpStatus"`
}

// ServeHTTP serves /<prefix>/{procedure}: queries over GET with an optional
// ?input= parameter, mutations over POST with a JSON body.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	name := path.Base(req.URL.Path)

	var kind Kind
	var input json.RawMessage
	switch req.Method {
	case http.MethodGet:
		kind = Query
		if raw := req.URL.Query().Get("input"); raw != "" {
			input = json.RawMessage(raw)
		}
	case http.MethodPost:
		kind = Mutation
		body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
		if err != nil {
			r.writeError(w, name, NewError(CodeBadRequest, "unreadable body", err))
			return
		}
		input = body
	default:
		r.writeError(w, name, NewError(CodeMethodNotSupported, "unsupported method "+req.Method, nil))
		return
	}

	data, err := r.Call(req.Context(), name, kind, input)
	if err != nil {
		r.writeError(w, name, err)
		return
	}

	metrics.RPCCalls.WithLabelValues(name, "OK").Inc()
	writeJSON(w, http.StatusOK, envelope{Result: &result{Data: data}})
}

func (r *Router) writeError(w http.ResponseWriter, name string, err error) {
	e := AsError(err)
	if e.Code == CodeInternal {
		r.logger.Error("rpc call failed", zap.String("procedure", name), zap.Error(err))
	} else if !errors.Is(e, ErrUnauthorized) {
		r.logger.Debug("rpc call rejected", zap.String("procedure", name), zap.Error(err))
	}
	if _, known := r.procs[name]; known {
		metrics.RPCCalls.WithLabelValues(name, string(e.Code)).Inc()
	}
	writeJSON(w, e.Code.HTTPStatus(), envelope{Error: &errorBody{
		Code:       e.Code,
		Message:    e.Message,
		HTTPStatus: e.Code.HTTPStatus(),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RequireSession rejects calls without an authenticated session before any
// downstream stage runs.
func RequireSession(next Handler) Handler {
	return func(ctx context.Context, call *Call) (any, error) {
		if auth.SessionFromContext(ctx) == nil {
			return nil, ErrUnauthorized
		}
		return next(ctx, call)
	}
}
