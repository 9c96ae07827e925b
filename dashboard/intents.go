package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Intent is a discrete user action against a session.
type Intent string

const (
	IntentSelect Intent = "select"
	IntentFilter Intent = "filter"
	IntentLoad   Intent = "load"
	IntentExport Intent = "export"
	IntentShare  Intent = "share"
)

// Share notifications.
const (
	MsgShared     = "Enlace copiado"
	MsgShareError = "No se pudo copiar"
)

// ErrUnknownIntent is returned for intents without a handler.
var ErrUnknownIntent = errors.New("unknown intent")

// Request carries the inputs an intent may need.
type Request struct {
	Code   string
	Filter string
	Format string
	// Page is the dashboard URL the share link is built from.
	Page *url.URL
}

// Result is what an intent produced. At most one of View, Download and
// ShareURL is set.
type Result struct {
	View *View
	// TableOnly marks a View in which only the table was re-rendered.
	TableOnly bool
	Download  *Download
	ShareURL  string
	Toast     string
}

// Handler runs one intent.
type Handler func(ctx context.Context, s *Session, req Request) (Result, error)

// Dispatcher maps intents to their handlers.
type Dispatcher struct {
	handlers  map[Intent]Handler
	exporters map[string]Exporter
	valid     func(code string) bool
}

// NewDispatcher returns a dispatcher for the standard intents. valid
// reports whether a municipality code may be selected; nil accepts any.
func NewDispatcher(valid func(string) bool) *Dispatcher {
	if valid == nil {
		valid = func(string) bool { return true }
	}
	d := &Dispatcher{exporters: DefaultExporters(), valid: valid}
	d.handlers = map[Intent]Handler{
		IntentSelect: d.selectMunicipality,
		IntentFilter: d.filter,
		IntentLoad:   d.load,
		IntentExport: d.export,
		IntentShare:  d.share,
	}
	return d
}

// RegisterExporter adds or replaces the exporter for format.
func (d *Dispatcher) RegisterExporter(format string, e Exporter) {
	d.exporters[strings.ToLower(format)] = e
}

// Formats lists the registered export formats.
func (d *Dispatcher) Formats() []string {
	out := make([]string, 0, len(d.exporters))
	for f := range d.exporters {
		out = append(out, f)
	}
	return out
}

// Dispatch runs intent against s.
func (d *Dispatcher) Dispatch(ctx context.Context, s *Session, intent Intent, req Request) (Result, error) {
	h, ok := d.handlers[intent]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownIntent, intent)
	}
	return h(ctx, s, req)
}

func (d *Dispatcher) selectMunicipality(ctx context.Context, s *Session, req Request) (Result, error) {
	if !d.valid(req.Code) {
		return Result{}, fmt.Errorf("unknown municipality %q", req.Code)
	}
	return d.loadCode(ctx, s, req.Code)
}

func (d *Dispatcher) load(ctx context.Context, s *Session, req Request) (Result, error) {
	return d.loadCode(ctx, s, s.State().Code)
}

// loadCode renders whatever the session holds after the load. Fetch
// failures are part of the view, not errors of the intent.
func (d *Dispatcher) loadCode(ctx context.Context, s *Session, code string) (Result, error) {
	err := s.Load(ctx, code)
	if errors.Is(err, context.Canceled) {
		return Result{}, err
	}
	v := Render(s.State())
	return Result{View: &v}, nil
}

func (d *Dispatcher) filter(ctx context.Context, s *Session, req Request) (Result, error) {
	s.SetFilter(req.Filter)
	v := RenderTable(s.State())
	return Result{View: &v, TableOnly: true}, nil
}

func (d *Dispatcher) export(ctx context.Context, s *Session, req Request) (Result, error) {
	format := strings.ToLower(req.Format)
	if format == "" {
		format = "json"
	}
	e, ok := d.exporters[format]
	if !ok {
		return Result{}, fmt.Errorf("unsupported export format %q", req.Format)
	}
	dl, err := e(s.State())
	if err != nil {
		return Result{}, fmt.Errorf("export %s: %w", format, err)
	}
	return Result{Download: &dl}, nil
}

func (d *Dispatcher) share(ctx context.Context, s *Session, req Request) (Result, error) {
	if req.Page == nil {
		s.Toast().Show(MsgShareError)
		return Result{Toast: MsgShareError}, errors.New("share: no page URL")
	}
	link := ShareURL(req.Page, s.State().Code)
	s.Toast().Show(MsgShared)
	return Result{ShareURL: link, Toast: MsgShared}, nil
}
