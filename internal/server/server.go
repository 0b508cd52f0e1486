// Package server implements staticd: a minimal HTTP/1.x static file server whose
// connections are served by a threadpool.Pool, one task per connection.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"github.com/ygrebnov/threadpool"
	"github.com/ygrebnov/threadpool/internal/accesslog"
	"github.com/ygrebnov/threadpool/metrics"
	"github.com/ygrebnov/threadpool/pool"
)

const (
	// readBufferSize bounds the whole request header block.
	readBufferSize  = 8 << 10
	writeBufferSize = 32 << 10
	// refusalTimeout bounds the time a refused connection may hold the accept loop.
	refusalTimeout = 100 * time.Millisecond
	maxAcceptDelay = time.Second
)

// AccessRecorder stores one entry per served request.
type AccessRecorder interface {
	Record(ctx context.Context, e accesslog.Entry) error
}

// Options configures a Server. Zero values disable the corresponding limit.
type Options struct {
	Addr           string
	Root           string
	MaxConnections int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AcceptRate     float64
	AcceptBurst    int
	Logger         *slog.Logger
	Metrics        metrics.Provider
	AccessLog      AccessRecorder
}

// Server accepts connections and submits each one to a pool. The pool is owned by
// the Server from Serve on: Serve shuts it down exactly once before returning.
type Server struct {
	opts    Options
	root    string
	pool    *threadpool.Pool
	logger  *slog.Logger
	inst    instruments
	limiter *rate.Limiter

	// http serves pool tasks; refusal answers connections the pool refused.
	http    *fasthttp.Server
	refusal *fasthttp.Server

	conns   pool.Pool[*connection]
	buffers pool.Pool[*bytes.Buffer]

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// New validates opts and binds the server to p. It does not listen.
func New(p *threadpool.Pool, opts Options) (*Server, error) {
	if p == nil {
		return nil, errors.New("server: nil pool")
	}
	if opts.MaxConnections < 0 {
		return nil, fmt.Errorf("server: negative connection limit %d", opts.MaxConnections)
	}
	root, err := filepath.Abs(opts.Root)
	if err == nil {
		root, err = filepath.EvalSymlinks(root)
	}
	if err != nil {
		return nil, fmt.Errorf("server: resolve root: %w", err)
	}

	s := &Server{
		opts:   opts,
		root:   root,
		pool:   p,
		logger: opts.Logger,
		inst:   newInstruments(opts.Metrics),
		ready:  make(chan struct{}),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if opts.AcceptRate > 0 {
		burst := opts.AcceptBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.AcceptRate), burst)
	}

	s.http = &fasthttp.Server{
		Handler:              s.serveHTTP,
		ErrorHandler:         s.serveError,
		Name:                 serverName,
		ReadBufferSize:       readBufferSize,
		WriteBufferSize:      writeBufferSize,
		ReadTimeout:          opts.ReadTimeout,
		WriteTimeout:         opts.WriteTimeout,
		DisableKeepalive:     true,
		NoDefaultContentType: true,
		Logger:               printfLogger{s.logger},
	}
	s.refusal = &fasthttp.Server{
		Handler:              s.serveRefusal,
		ErrorHandler:         func(ctx *fasthttp.RequestCtx, _ error) { s.serveRefusal(ctx) },
		Name:                 serverName,
		ReadBufferSize:       readBufferSize,
		ReadTimeout:          refusalTimeout,
		WriteTimeout:         refusalTimeout,
		DisableKeepalive:     true,
		NoDefaultContentType: true,
		Logger:               printfLogger{s.logger},
	}

	s.conns = pool.NewDynamic(
		func() *connection { return &connection{} },
		func(c *connection) { *c = connection{} },
	)
	// Only workers render listings and each holds at most one buffer, so Get never blocks.
	s.buffers = pool.NewFixed(uint(p.Workers()),
		func() *bytes.Buffer { return new(bytes.Buffer) },
		func(b *bytes.Buffer) { b.Reset() },
	)
	return s, nil
}

// ListenAndServe listens on opts.Addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	lc := listenConfig(s.opts.ReadTimeout)
	ln, err := lc.Listen(ctx, "tcp", s.opts.Addr)
	if err != nil {
		// The pool is still ours to stop even though nothing was served.
		return errors.Join(fmt.Errorf("server: listen %s: %w", s.opts.Addr, err), s.pool.Shutdown())
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln until MaxConnections have been accepted, ctx
// is canceled or ln fails. Each connection becomes one pool task. A connection the
// pool refuses is answered on the accepting goroutine: 503 when the queue is full,
// 500 otherwise.
//
// When accepting stops, Serve closes ln and shuts the pool down, which waits for
// every accepted connection to be served. Serve must be called at most once.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()

	s.logger.Info("listening",
		slog.String("addr", ln.Addr().String()),
		slog.String("root", s.root),
		slog.Int("workers", s.pool.Workers()),
		slog.Int("max_connections", s.opts.MaxConnections),
	)

	acceptErr := s.acceptLoop(ctx, ln)
	_ = ln.Close()

	shutdownErr := s.pool.Shutdown()
	st := s.pool.Stats()
	s.logger.Info("server stopped",
		slog.Int("accepted", st.Submitted),
		slog.Uint64("served", st.Completed),
		slog.Uint64("rejected", st.Rejected),
	)
	return errors.Join(acceptErr, shutdownErr)
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	var delay time.Duration
	for accepted := 0; s.opts.MaxConnections == 0 || accepted < s.opts.MaxConnections; {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				delay = backoff(delay)
				s.logger.Warn("accept failed, retrying", slog.Any("error", err), slog.Duration("delay", delay))
				time.Sleep(delay)
				continue
			}
			return fmt.Errorf("server: accept: %w", err)
		}
		delay = 0
		accepted++
		s.inst.accepted.Add(1)
		s.dispatch(conn)
	}
	return nil
}

func backoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > maxAcceptDelay {
		d = maxAcceptDelay
	}
	return d
}

// connection is the net.Conn handed to fasthttp; handlers find it via RequestCtx.Conn.
type connection struct {
	net.Conn
	id       string
	accepted time.Time

	refuse      int  // status sent by the refusal server
	status      int  // status of the response, 0 until one was produced
	clientError bool // the request could not be read; already answered
}

// dispatch hands conn to the pool. Ownership of conn moves into the task.
func (s *Server) dispatch(conn net.Conn) {
	c := s.conns.Get()
	c.Conn = conn
	c.id = uuid.NewString()
	c.accepted = time.Now()

	err := s.pool.Submit(threadpool.TaskWithArg(s.serveConn, c))
	if err == nil {
		return
	}

	status := 500
	if errors.Is(err, threadpool.ErrResourceExhausted) {
		status = 503
	}
	s.inst.rejected.Add(1)
	s.logger.Warn("connection rejected",
		slog.String("request_id", c.id),
		slog.String("remote", conn.RemoteAddr().String()),
		slog.Int("status", status),
		slog.Any("error", err),
	)
	s.reject(c, status)
}

// reject answers c on the accepting goroutine. The request is read first, bounded by
// refusalTimeout, so the client sees the status instead of a reset.
func (s *Server) reject(c *connection, status int) {
	defer s.conns.Put(c)
	c.refuse = status
	if err := s.refusal.ServeConn(c); err != nil {
		s.logger.Debug("refusal not delivered", slog.String("request_id", c.id), slog.Any("error", err))
	}
}

// serveConn is the pool task for one connection: read one request, write one
// response, close.
func (s *Server) serveConn(_ context.Context, c *connection) error {
	defer s.conns.Put(c)

	err := s.http.ServeConn(c)
	switch {
	case err == nil:
		return nil
	case c.status == 0 || c.clientError:
		s.logger.Debug("connection ended without a response",
			slog.String("request_id", c.id), slog.Any("error", err))
		return nil
	default:
		return fmt.Errorf("write response %s: %w", c.id, err)
	}
}

func (s *Server) serveHTTP(ctx *fasthttp.RequestCtx) {
	c := s.connOf(ctx)
	req, err := newRequest(ctx.Method(), ctx.Request.Header.RequestURI(), ctx.Request.Header.Protocol())
	var res *response
	if err != nil {
		res = errorPage(400)
	} else {
		res = s.handle(req)
	}
	res.apply(ctx)
	s.finish(ctx, c, req, res)
}

// serveError answers a request fasthttp could not read.
func (s *Server) serveError(ctx *fasthttp.RequestCtx, err error) {
	c := s.connOf(ctx)
	c.clientError = true

	status := 400
	if isTimeout(err) {
		status = 408
	}
	res := errorPage(status)
	res.apply(ctx)
	s.finish(ctx, c, nil, res)
}

func (s *Server) serveRefusal(ctx *fasthttp.RequestCtx) {
	c := s.connOf(ctx)
	req, _ := newRequest(ctx.Method(), ctx.Request.Header.RequestURI(), ctx.Request.Header.Protocol())
	status := c.refuse
	if status == 0 {
		status = 503
	}
	res := errorPage(status)
	res.apply(ctx)
	s.finish(ctx, c, req, res)
}

func (s *Server) connOf(ctx *fasthttp.RequestCtx) *connection {
	if c, ok := ctx.Conn().(*connection); ok {
		return c
	}
	return &connection{Conn: ctx.Conn(), id: uuid.NewString(), accepted: ctx.ConnTime()}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.Is(err, os.ErrDeadlineExceeded) || errors.As(err, &te) && te.Timeout()
}

// finish records metrics, the log line and the access log entry of one response.
func (s *Server) finish(ctx context.Context, c *connection, req *request, res *response) {
	c.status = res.status
	elapsed := time.Since(c.accepted)
	s.inst.response(res.status)
	s.inst.bytes.Add(res.size)
	s.inst.duration.Record(elapsed.Seconds())

	entry := accesslog.Entry{
		RequestID:  c.id,
		RemoteAddr: c.RemoteAddr().String(),
		Status:     res.status,
		Bytes:      res.size,
		Duration:   elapsed,
		Time:       c.accepted,
	}
	if req != nil {
		entry.Method = req.method
		entry.Path = req.path
	}

	s.logger.Debug("response",
		slog.String("request_id", entry.RequestID),
		slog.String("remote", entry.RemoteAddr),
		slog.String("method", entry.Method),
		slog.String("path", entry.Path),
		slog.Int("status", entry.Status),
		slog.Int64("bytes", entry.Bytes),
		slog.Duration("duration", elapsed),
	)

	if s.opts.AccessLog != nil {
		if err := s.opts.AccessLog.Record(ctx, entry); err != nil {
			s.logger.Warn("access log write failed", slog.String("request_id", c.id), slog.Any("error", err))
		}
	}
}

// printfLogger routes fasthttp's own messages to slog at debug level.
type printfLogger struct{ l *slog.Logger }

func (p printfLogger) Printf(format string, args ...any) {
	p.l.Debug(fmt.Sprintf(format, args...), slog.String("component", "fasthttp"))
}

// Addr returns the listening address once Serve has started, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Ready is closed when Serve has a listener.
func (s *Server) Ready() <-chan struct{} { return s.ready }
