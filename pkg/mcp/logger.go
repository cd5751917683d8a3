package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rat/pkg/log"
)

// toolHandler is an MCP tool handler that participates in tracing.
type toolHandler[In, Out any] func(
	context.Context,
	*mcp.ServerSession,
	*mcp.CallToolParamsFor[In],
) (*mcp.CallToolResultFor[Out], error)

// withTracing wraps a tool handler so every call runs inside its own span,
// named after the tool, with a trace-scoped logger reporting the outcome.
func withTracing[In, Out any](
	tracer trace.Tracer,
	handler toolHandler[In, Out],
) mcp.ToolHandlerFor[In, Out] {
	return func(
		ctx context.Context,
		session *mcp.ServerSession,
		params *mcp.CallToolParamsFor[In],
	) (*mcp.CallToolResultFor[Out], error) {
		ctx, span := tracer.Start(ctx, params.Name)
		defer span.End()

		logger := log.WithContext(ctx).With(slog.String("tool", params.Name))
		logger.DebugContext(ctx, "handling tool call",
			slog.Any("args", params.Arguments),
		)

		result, err := handler(ctx, session, params)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.ErrorContext(ctx, "tool call failed",
				slog.Any("error", err),
			)

			return result, err
		}

		logger.DebugContext(ctx, "tool call completed")

		return result, nil
	}
}
