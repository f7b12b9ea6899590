package supervisor

import (
	"context"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

// StatusServer exposes the supervisor health snapshot over HTTP for operators
// who want a live view instead of polling status.json.
type StatusServer struct {
	supervisor *Supervisor
	logger     *logging.Logger
	server     *fasthttp.Server
}

func NewStatusServer(supervisor *Supervisor, logger *logging.Logger) *StatusServer {
	if logger == nil {
		logger = logging.Default()
	}
	s := &StatusServer{supervisor: supervisor, logger: logger}
	s.server = &fasthttp.Server{
		Handler:               s.handle,
		NoDefaultServerHeader: true,
	}
	return s
}

// ListenAndServe blocks until the context is canceled or the listener fails.
func (s *StatusServer) ListenAndServe(ctx context.Context, addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		<-ctx.Done()
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe(addr)
	}()

	select {
	case <-ctx.Done():
		if err := s.server.Shutdown(); err != nil {
			s.logger.Warn("status server shutdown failed", "error", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *StatusServer) handle(ctx *fasthttp.RequestCtx) {
	if string(ctx.Path()) != "/status" || !ctx.IsGet() {
		ctx.SetStatusCode(http.StatusNotFound)
		return
	}

	payload, err := sonic.Marshal(s.supervisor.Status())
	if err != nil {
		s.logger.Warn("encode status report failed", "error", err)
		ctx.SetStatusCode(http.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBody(payload)
}
