package engine

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"booking-escalator/internal/appwrite"
	"booking-escalator/internal/config"
	"booking-escalator/internal/instrument"
	"booking-escalator/internal/logging"
	"booking-escalator/internal/metrics"
)

// Reporter is the invocation's log side channel.
type Reporter interface {
	Log(msg string)
	Error(msg string)
}

type zapReporter struct {
	log *zap.SugaredLogger
}

// NewReporter writes invocation messages to log.
func NewReporter(log *zap.SugaredLogger) Reporter {
	return &zapReporter{log: logging.OrNop(log)}
}

func (r *zapReporter) Log(msg string)   { r.log.Info(msg) }
func (r *zapReporter) Error(msg string) { r.log.Error(msg) }

// Request is one invocation of the function.
type Request struct {
	// BodyRaw is the raw request body. Preferred over Payload.
	BodyRaw string
	// Payload is the legacy event-data field.
	Payload string
	// Event and Trigger describe how the platform invoked the function.
	Event    string
	Trigger  string
	Reporter Reporter
}

// Response is the JSON body returned to the platform.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Result struct {
	Status   int
	Response Response
}

// DocumentUpdater is the single remote operation the escalator performs.
type DocumentUpdater interface {
	UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any, permissions []string) (*appwrite.Document, error)
}

// ConfigLoader reads the function configuration for one invocation.
type ConfigLoader func() (*config.Function, error)

// UpdaterFactory builds the remote client from the invocation's configuration.
type UpdaterFactory func(cfg *config.Function) DocumentUpdater

// AppwriteUpdater connects to the document database described by cfg.
func AppwriteUpdater(cfg *config.Function) DocumentUpdater {
	client := appwrite.NewClient().
		SetEndpoint(cfg.Endpoint).
		SetProject(cfg.ProjectID).
		SetKey(cfg.APIKey)
	return appwrite.NewDatabases(client)
}

// Escalator grants the owner team read and update on newly created bookings.
// It holds no per-invocation state and is safe for concurrent use.
type Escalator struct {
	loadConfig ConfigLoader
	newUpdater UpdaterFactory
	guard      *Guard
	metrics    *metrics.Recorder
	log        *zap.SugaredLogger
}

type Option func(*Escalator)

func WithGuard(g *Guard) Option {
	return func(e *Escalator) { e.guard = g }
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Escalator) { e.metrics = m }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Escalator) { e.log = l }
}

// NewEscalator wires an Escalator. Nil arguments fall back to reading the
// process environment and talking to the real API.
func NewEscalator(load ConfigLoader, factory UpdaterFactory, opts ...Option) *Escalator {
	if load == nil {
		load = config.FunctionFromEnv
	}
	if factory == nil {
		factory = AppwriteUpdater
	}
	e := &Escalator{loadConfig: load, newUpdater: factory}
	for _, opt := range opts {
		opt(e)
	}
	e.log = logging.OrNop(e.log)
	return e
}

// Handle runs one invocation. It never returns a Go error: every failure is
// reported through the request's reporter and turned into a failed Result.
func (e *Escalator) Handle(ctx context.Context, req *Request) *Result {
	ctx, span := instrument.GetInstrumenter(ctx).StartSpan(ctx, "function", "escalator", "handle")
	defer span.End()

	rep := req.Reporter
	if rep == nil {
		rep = NewReporter(e.log)
	}

	msg, outcome, err := e.run(ctx, req, rep, span)
	if err != nil {
		appErr := asAppError(err)
		rep.Error(fmt.Sprintf("Error while processing function: %s", appErr.Message))
		e.metrics.IncInvocation(appErr.Code)
		span.SetStatus("error")
		span.SetMetadata("error_code", appErr.Code)
		return &Result{
			Status:   appErr.Status,
			Response: Response{Success: false, Message: appErr.Message},
		}
	}

	e.metrics.IncInvocation(outcome)
	span.SetStatus("ok")
	span.SetMetadata("outcome", outcome)
	return &Result{
		Status:   http.StatusOK,
		Response: Response{Success: true, Message: msg},
	}
}

func (e *Escalator) run(ctx context.Context, req *Request, rep Reporter, span instrument.Span) (string, string, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return "", "", ConfigurationError(err)
	}

	raw, err := ExtractPayload(req.BodyRaw, req.Payload)
	if err != nil {
		return "", "", err
	}
	booking, err := ParsePayload(raw)
	if err != nil {
		return "", "", err
	}
	span.SetDocument(cfg.BookingCollectionID, booking.ID)

	rep.Log(fmt.Sprintf("Processing new booking with ID: %s", booking.ID))

	allowed, err := e.guard.Allow(req.Event, req.Trigger, booking)
	if err != nil {
		return "", "", ConditionError(err)
	}
	if !allowed {
		rep.Log(fmt.Sprintf("Skipping booking %s: trigger condition %q not met", booking.ID, e.guard.String()))
		return "Event skipped by trigger condition.", "skipped", nil
	}

	merged := MergePermissions(booking.Permissions, OwnerPermissions(cfg.OwnerTeamID)...)
	if err := e.apply(ctx, cfg, booking.ID, merged); err != nil {
		return "", "", RemoteUpdateError(err)
	}

	added := addedCount(booking.Permissions, merged)
	e.metrics.AddGranted(added)
	instrument.GetInstrumenter(ctx).EmitBusinessEvent(ctx, "permissions.granted", cfg.BookingCollectionID, booking.ID,
		map[string]any{"added": added, "total": len(merged)})

	rep.Log(fmt.Sprintf("Permissions updated for document: %s", booking.ID))
	return "Permissions updated successfully.", "success", nil
}

// apply replaces the document's permissions with perms and leaves its data
// untouched.
func (e *Escalator) apply(ctx context.Context, cfg *config.Function, documentID string, perms []string) error {
	ctx, span := instrument.GetInstrumenter(ctx).StartSpan(ctx, "appwrite", "databases", "update_document")
	defer span.End()
	span.SetDocument(cfg.BookingCollectionID, documentID)
	span.SetMetadata("permissions", len(perms))

	start := time.Now()
	_, err := e.newUpdater(cfg).UpdateDocument(ctx, cfg.DatabaseID, cfg.BookingCollectionID, documentID, nil, perms)
	e.metrics.ObserveUpdate(time.Since(start), err)
	if err != nil {
		span.SetStatus("error")
		span.SetMetadata("error", err.Error())
		return err
	}
	span.SetStatus("ok")
	return nil
}
