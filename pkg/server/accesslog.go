// pkg/server/accesslog.go

package server

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"AveList/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type logReader struct {
	buffer chan []byte
}

// accessLog fans request lines out to the clients tailing /debug/access-log.
type accessLog struct {
	sync.Mutex
	readers map[uint64]*logReader
	next    uint64
	slow    time.Duration
	obs     Observer
}

func newAccessLog(slow time.Duration, obs Observer) *accessLog {
	return &accessLog{readers: make(map[uint64]*logReader), slow: slow, obs: obs}
}

func (a *accessLog) logit(r *http.Request, status int, used time.Duration) {
	line := fmt.Sprintf("%d %s %s - %dms", status, r.Method, r.URL.RequestURI(), used.Milliseconds())
	if used >= a.slow {
		logger.Infof("slow request: %s", line)
	} else {
		logger.Debugf("%s", line)
	}

	a.Lock()
	defer a.Unlock()
	if len(a.readers) == 0 {
		return
	}
	ts := utils.Now().Format("2006.01.02 15:04:05.000000")
	full := []byte(fmt.Sprintf("%s [%s] %s\n", ts, middleware.GetReqID(r.Context()), line))
	for _, rd := range a.readers {
		select {
		case rd.buffer <- full:
		default:
		}
	}
}

func (a *accessLog) open() (uint64, *logReader) {
	a.Lock()
	defer a.Unlock()
	a.next++
	rd := &logReader{buffer: make(chan []byte, 10240)}
	a.readers[a.next] = rd
	return a.next, rd
}

func (a *accessLog) close(id uint64) {
	a.Lock()
	defer a.Unlock()
	delete(a.readers, id)
}

// middleware logs every request once it is served.
func (a *accessLog) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		used := time.Since(start)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		a.logit(r, status, used)
		if a.obs != nil {
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			a.obs.ObserveRequest(route, r.Method, status, used)
		}
	})
}

// tail streams access log lines for the number of seconds given in the query (default 10).
func (a *accessLog) tail(w http.ResponseWriter, r *http.Request) {
	secs := 10
	if s := r.URL.Query().Get("seconds"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "invalid seconds "+s)
			return
		}
		secs = n
	}
	id, rd := a.open()
	defer a.close(id)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	deadline := time.NewTimer(time.Duration(secs) * time.Second)
	defer deadline.Stop()
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		select {
		case line := <-rd.buffer:
			if _, err := w.Write(line); err != nil {
				return
			}
		case <-tick.C:
			if _, err := w.Write([]byte("#\n")); err != nil {
				return
			}
		case <-deadline.C:
			return
		case <-r.Context().Done():
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
