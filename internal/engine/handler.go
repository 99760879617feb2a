package engine

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"booking-escalator/internal/instrument"
	"booking-escalator/internal/logging"
)

// Platform headers describing the invocation.
const (
	HeaderEvent   = "X-Appwrite-Event"
	HeaderTrigger = "X-Appwrite-Trigger"
)

type Handler struct {
	escalator *Escalator
	log       *zap.SugaredLogger
}

func NewHandler(e *Escalator, log *zap.SugaredLogger) *Handler {
	return &Handler{escalator: e, log: logging.OrNop(log)}
}

// Invoke handles POST /, the function entrypoint. The body is the raw
// payload; the "payload" query parameter is the legacy fallback.
func (h *Handler) Invoke(c *fiber.Ctx) error {
	ctx := c.UserContext()
	req := &Request{
		BodyRaw:  string(c.Body()),
		Payload:  c.Query("payload"),
		Event:    c.Get(HeaderEvent),
		Trigger:  c.Get(HeaderTrigger),
		Reporter: NewReporter(h.log.With("trace_id", instrument.GetTraceID(ctx))),
	}

	res := h.escalator.Handle(ctx, req)
	return c.Status(res.Status).JSON(res.Response)
}

// Health handles GET /health.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
