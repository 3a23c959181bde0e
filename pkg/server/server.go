// pkg/server/server.go

package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"AveList/pkg/dataset"
	"AveList/pkg/utils"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger = utils.GetLogger("avelist")

// Server is the mock REST backend.
type Server struct {
	conf *Config
	ds   dataset.Dataset
	srv  *http.Server
}

func New(ds dataset.Dataset, conf *Config) *Server {
	conf.Check()
	return &Server{
		conf: conf,
		ds:   ds,
		srv: &http.Server{
			Addr:              conf.Listen,
			Handler:           NewRouter(ds, conf),
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          utils.GetStdLogger(logger, logrus.WarnLevel),
		},
	}
}

// Serve accepts connections on l until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(l)
	}()
	logger.Infof("Serving dataset %s at %s", s.ds.Name(), l.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(sctx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	logger.Infof("Server stopped")
	return nil
}

// ListenAndServe listens on Config.Listen and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.conf.Listen)
	if err != nil {
		return errors.Wrapf(err, "listen %s", s.conf.Listen)
	}
	return s.Serve(ctx, l)
}
