package instrument

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// TraceHeader carries the trace ID in and out of the function.
const TraceHeader = "X-Trace-ID"

// Middleware sets up tracing for each request: it propagates or generates a
// trace ID, installs the instrumenter in the request context and wraps the
// downstream handlers in a root span. A nil buffer disables spans but the
// trace ID is still assigned. Request strings are copied before they reach a
// span because fiber reuses their backing buffers after the handler returns.
func Middleware(buffer *EventBuffer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := utils.CopyString(c.Get(TraceHeader))
		if traceID == "" {
			traceID = newUUID()
		}
		c.Set(TraceHeader, traceID)

		ctx := WithTraceID(c.UserContext(), traceID)
		if buffer == nil {
			c.SetUserContext(ctx)
			return c.Next()
		}

		inst := NewInstrumenter(buffer)
		ctx = WithInstrumenter(ctx, inst)
		ctx, span := inst.StartSpan(ctx, "http", "handler", "request")
		span.SetMetadata("method", utils.CopyString(c.Method()))
		span.SetMetadata("path", utils.CopyString(c.Path()))
		c.SetUserContext(ctx)

		err := c.Next()

		statusCode := c.Response().StatusCode()
		span.SetMetadata("status_code", statusCode)
		if err != nil || statusCode >= 400 {
			span.SetStatus("error")
		} else {
			span.SetStatus("ok")
		}
		span.End()

		return err
	}
}
