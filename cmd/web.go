package cmd

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zalepa/censo/census"
	"github.com/zalepa/censo/config"
	"github.com/zalepa/censo/dashboard"
)

//go:embed web.html
var webTemplates embed.FS

const (
	sessionCookie = "censo_session"
	sessionIdle   = time.Hour
)

// Serve implements the "serve" subcommand.
func Serve(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := configFlag(fs)
	listen := fs.String("listen", "", "listen address (overrides config)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: censo serve [-listen :8080] [-config file]\n\nStart the census dashboard.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	cfg, log := mustConfig(*cfgPath)
	if *listen != "" {
		cfg.Listen = *listen
	}

	srv, err := newServer(cfg, cfg.Client(log), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("serving on http://localhost%s\n", cfg.Listen)
	if err := srv.run(ctx, cfg.Listen); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

type server struct {
	cfg      *config.Config
	loader   dashboard.Loader
	dispatch *dashboard.Dispatcher
	tmpl     *template.Template
	log      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*dashboard.Session
}

func newServer(cfg *config.Config, loader dashboard.Loader, log *slog.Logger) (*server, error) {
	tmpl, err := template.New("web.html").Funcs(template.FuncMap{
		"markup": func(s string) template.HTML { return template.HTML(s) },
	}).ParseFS(webTemplates, "web.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &server{
		cfg:      cfg,
		loader:   loader,
		dispatch: newDispatcher(cfg),
		tmpl:     tmpl,
		log:      log,
		sessions: make(map[string]*dashboard.Session),
	}, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /intent/{name}", s.handleIntent)
	mux.HandleFunc("GET /chart/{file}", s.handleChart)
	mux.HandleFunc("GET /api/municipalities", s.handleMunicipalities)
	return s.logRequests(mux)
}

// run serves until ctx is cancelled, then shuts down gracefully.
func (s *server) run(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(sessionIdle / 4)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				s.pruneSessions(now)
			}
		}
	})
	return g.Wait()
}

// session returns the caller's session, creating one and setting the
// cookie when the request carries none.
func (s *server) session(w http.ResponseWriter, r *http.Request) *dashboard.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, err := r.Cookie(sessionCookie); err == nil {
		if sess, ok := s.sessions[c.Value]; ok {
			return sess
		}
	}

	id := uuid.NewString()
	sess := dashboard.NewSession(id, s.loader, s.cfg.Default, s.log)
	s.sessions[id] = sess
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func (s *server) pruneSessions(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if now.Sub(sess.LastSeen()) > sessionIdle {
			delete(s.sessions, id)
		}
	}
	s.log.Debug("pruned sessions", slog.Int("active", len(s.sessions)))
}

type pageData struct {
	Municipalities []config.Municipality
	Formats        []string
	Name           string
	View           dashboard.View
	Toast          string
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	code := dashboard.ResolveDeepLink(r.URL.Query(), s.cfg.Codes(), sess.State().Code)

	if _, err := s.dispatch.Dispatch(r.Context(), sess, dashboard.IntentSelect, dashboard.Request{Code: code}); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if q, ok := r.URL.Query()["q"]; ok {
		sess.SetFilter(q[0])
	}

	st := sess.State()
	toast, _ := sess.Toast().Current()
	data := pageData{
		Municipalities: s.cfg.Municipalities,
		Formats:        exportFormats(s.dispatch),
		Name:           municipalityName(s.cfg.Municipalities, st.Code),
		View:           dashboard.Render(st),
		Toast:          toast,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.tmpl.ExecuteTemplate(w, "page", data); err != nil {
		s.log.Error("render page", slog.String("error", err.Error()))
	}
}

type shareResponse struct {
	URL     string `json:"url,omitempty"`
	Message string `json:"message"`
}

func (s *server) handleIntent(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := dashboard.Request{
		Code:   r.PostFormValue("code"),
		Filter: r.PostFormValue("q"),
		Format: r.PostFormValue("format"),
		Page:   pageURL(r),
	}
	intent := dashboard.Intent(r.PathValue("name"))

	res, err := s.dispatch.Dispatch(r.Context(), sess, intent, req)
	switch {
	case errors.Is(err, dashboard.ErrUnknownIntent):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case intent == dashboard.IntentShare:
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
		}
		json.NewEncoder(w).Encode(shareResponse{URL: res.ShareURL, Message: res.Toast})
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case res.Download != nil:
		w.Header().Set("Content-Type", res.Download.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Download.Filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Download.Body)))
		w.Write(res.Download.Body)
	case res.View != nil:
		name := "views"
		if res.TableOnly {
			name = "table"
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := s.tmpl.ExecuteTemplate(w, name, res.View); err != nil {
			s.log.Error("render fragment", slog.String("template", name), slog.String("error", err.Error()))
		}
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *server) handleChart(w http.ResponseWriter, r *http.Request) {
	group, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok {
		http.NotFound(w, r)
		return
	}
	st := s.session(w, r).State()
	if st.Err != nil {
		http.NotFound(w, r)
		return
	}
	card, ok := census.BreakdownCard(st.Dataset, group)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := writeCardPNG(w, card); err != nil {
		s.log.Error("render chart", slog.String("group", group), slog.String("error", err.Error()))
	}
}

func (s *server) handleMunicipalities(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Default        string                `json:"default"`
		Municipalities []config.Municipality `json:"municipalities"`
	}{s.cfg.Default, s.cfg.Municipalities})
}

// pageURL reconstructs the dashboard URL the browser is on, preferring the
// Referer sent with intent requests.
func pageURL(r *http.Request) *url.URL {
	if ref := r.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && u.IsAbs() {
			return u
		}
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return &url.URL{Scheme: scheme, Host: r.Host, Path: "/"}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("http_request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000),
		)
	})
}
