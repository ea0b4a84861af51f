package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/checkers-engine/internal/adapter/checkerspresenter"
	"github.com/park285/checkers-engine/internal/checkers"
	"github.com/park285/checkers-engine/internal/ledger"
	"github.com/park285/checkers-engine/internal/obslog"
	"github.com/park285/checkers-engine/internal/table"
)

const (
	tablesPrefix   = "/api/tables"
	requestTimeout = 5 * time.Second
	maxResults     = 200
)

// CreateRequest optionally seeds a table with a position. Board rows use the
// symbols . b B r R.
type CreateRequest struct {
	Board  []string       `json:"board,omitempty"`
	Active checkers.Color `json:"active,omitempty"`
}

type PickRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type ResultsResponse struct {
	Results []*ledger.Result `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server maps JSON requests onto the table registry and renders every table
// state through the presenter.
type Server struct {
	tables       *table.Registry
	presenter    *checkerspresenter.Presenter
	resultsLimit int
}

func NewServer(tables *table.Registry, presenter *checkerspresenter.Presenter, resultsLimit int) *Server {
	if resultsLimit <= 0 {
		resultsLimit = 20
	}
	return &Server{tables: tables, presenter: presenter, resultsLimit: resultsLimit}
}

// Handler is the fasthttp entry point.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	path := strings.TrimRight(string(ctx.Path()), "/")
	method := string(ctx.Method())

	s.route(ctx, method, path)

	obslog.L().Debug("http_request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", ctx.Response.StatusCode()),
		zap.Duration("took", time.Since(start)),
	)
}

func (s *Server) route(ctx *fasthttp.RequestCtx, method, path string) {
	switch {
	case path == "/healthz":
		if method != fasthttp.MethodGet {
			methodNotAllowed(ctx)
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, map[string]any{"status": "ok", "tables": s.tables.Len()})
	case path == "/api/results":
		if method != fasthttp.MethodGet {
			methodNotAllowed(ctx)
			return
		}
		s.handleResults(ctx)
	case path == "/api/tally":
		if method != fasthttp.MethodGet {
			methodNotAllowed(ctx)
			return
		}
		s.handleTally(ctx)
	case path == tablesPrefix:
		if method != fasthttp.MethodPost {
			methodNotAllowed(ctx)
			return
		}
		s.handleCreate(ctx)
	case strings.HasPrefix(path, tablesPrefix+"/"):
		parts := strings.Split(strings.TrimPrefix(path, tablesPrefix+"/"), "/")
		id := parts[0]
		switch {
		case len(parts) == 1 && method == fasthttp.MethodGet:
			s.handleGet(ctx, id)
		case len(parts) == 1 && method == fasthttp.MethodDelete:
			s.handleRemove(ctx, id)
		case len(parts) == 2 && parts[1] == "pick" && method == fasthttp.MethodPost:
			s.handlePick(ctx, id)
		case len(parts) == 2 && parts[1] == "reset" && method == fasthttp.MethodPost:
			s.handleReset(ctx, id)
		case len(parts) <= 2:
			methodNotAllowed(ctx)
		default:
			writeError(ctx, fasthttp.StatusNotFound, "not found")
		}
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not found")
	}
}

func (s *Server) handleCreate(ctx *fasthttp.RequestCtx) {
	var req CreateRequest
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, "invalid json: "+err.Error())
			return
		}
	}
	rctx, cancel := requestContext()
	defer cancel()

	var (
		st  table.State
		err error
	)
	if len(req.Board) > 0 {
		b, perr := checkers.ParseBoard(req.Board...)
		if perr != nil {
			writeError(ctx, fasthttp.StatusBadRequest, perr.Error())
			return
		}
		st, err = s.tables.CreateFrom(rctx, b, req.Active)
	} else {
		st, err = s.tables.Create(rctx)
	}
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	v := s.presenter.Fresh(st.TableID, st.Snapshot, st.Status, st.Hints, false)
	v.GameID = st.GameID
	writeJSON(ctx, fasthttp.StatusCreated, v)
}

func (s *Server) handleGet(ctx *fasthttp.RequestCtx, id string) {
	rctx, cancel := requestContext()
	defer cancel()
	st, err := s.tables.Get(rctx, id)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	v := s.presenter.Current(st.TableID, st.Snapshot, st.Status, st.Hints)
	v.GameID = st.GameID
	writeJSON(ctx, fasthttp.StatusOK, v)
}

func (s *Server) handlePick(ctx *fasthttp.RequestCtx, id string) {
	var req PickRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	rctx, cancel := requestContext()
	defer cancel()
	st, err := s.tables.Pick(rctx, id, req.Row, req.Col)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	v := s.presenter.AfterPick(st.TableID, *st.Pick, st.Mover, st.Snapshot, st.Hints)
	v.GameID = st.GameID
	// rejections are ordinary game flow and still answer 200
	writeJSON(ctx, fasthttp.StatusOK, v)
}

func (s *Server) handleReset(ctx *fasthttp.RequestCtx, id string) {
	rctx, cancel := requestContext()
	defer cancel()
	st, err := s.tables.Reset(rctx, id)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	v := s.presenter.Fresh(st.TableID, st.Snapshot, st.Status, st.Hints, true)
	v.GameID = st.GameID
	writeJSON(ctx, fasthttp.StatusOK, v)
}

func (s *Server) handleRemove(ctx *fasthttp.RequestCtx, id string) {
	rctx, cancel := requestContext()
	defer cancel()
	if err := s.tables.Remove(rctx, id); err != nil {
		writeFailure(ctx, err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (s *Server) handleResults(ctx *fasthttp.RequestCtx) {
	limit := s.resultsLimit
	if raw := ctx.QueryArgs().Peek("limit"); len(raw) > 0 {
		n, err := strconv.Atoi(string(raw))
		if err != nil || n <= 0 {
			writeError(ctx, fasthttp.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxResults {
			n = maxResults
		}
		limit = n
	}
	rctx, cancel := requestContext()
	defer cancel()
	results, err := s.tables.Ledger().Recent(rctx, limit)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ResultsResponse{Results: results})
}

func (s *Server) handleTally(ctx *fasthttp.RequestCtx) {
	rctx, cancel := requestContext()
	defer cancel()
	t, err := s.tables.Ledger().Tally(rctx)
	if err != nil {
		writeFailure(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, t)
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func writeFailure(ctx *fasthttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, table.ErrTableNotFound):
		writeError(ctx, fasthttp.StatusNotFound, err.Error())
	case errors.Is(err, table.ErrTooManyTables):
		writeError(ctx, fasthttp.StatusTooManyRequests, err.Error())
	case errors.Is(err, checkers.ErrOutOfBounds),
		errors.Is(err, checkers.ErrCorruptBoard):
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
	default:
		obslog.L().Error("http_internal_error", zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(ctx *fasthttp.RequestCtx) {
	writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
}

func writeError(ctx *fasthttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, errorResponse{Error: msg})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		obslog.L().Error("http_encode_error", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(payload)
}
