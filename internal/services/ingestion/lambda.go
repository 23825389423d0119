package ingestion

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
)

// LambdaHandler adapts SQS and API Gateway invocations to ProcessEvent.
type LambdaHandler struct {
	service *Service
	logger  *slog.Logger
}

// NewLambdaHandler creates a new Lambda entry adapter.
func NewLambdaHandler(service *Service, logger *slog.Logger) *LambdaHandler {
	return &LambdaHandler{
		service: service,
		logger:  logger.With("handler", "lambda"),
	}
}

// lambdaResult is the API Gateway reply for a single ingest.
type lambdaResult struct {
	Success bool    `json:"success"`
	ItemID  *string `json:"item_id"`
}

// Handle dispatches on the event shape: an SQS batch carries "Records",
// an API Gateway request carries "body". Anything else is rejected.
func (h *LambdaHandler) Handle(ctx context.Context, raw json.RawMessage) (events.APIGatewayProxyResponse, error) {
	logger := h.logger
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With("request_id", lc.AwsRequestID)
	}

	var shape map[string]json.RawMessage
	if err := json.Unmarshal(raw, &shape); err != nil {
		logger.Error("unknown event", "error", err)
		return reply(http.StatusBadRequest, "bad event"), nil
	}

	if _, ok := shape["Records"]; ok {
		var batch events.SQSEvent
		if err := json.Unmarshal(raw, &batch); err != nil {
			logger.Error("failed to decode sqs event", "error", err)
			return reply(http.StatusInternalServerError, err.Error()), nil
		}
		for _, record := range batch.Records {
			if _, err := h.process(ctx, logger, record.Body); err != nil {
				return reply(http.StatusInternalServerError, err.Error()), nil
			}
		}
		return reply(http.StatusOK, "processed sqs batch"), nil
	}

	if _, ok := shape["body"]; ok {
		var req events.APIGatewayProxyRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			logger.Error("failed to decode api gateway event", "error", err)
			return reply(http.StatusInternalServerError, err.Error()), nil
		}
		out, err := h.process(ctx, logger, req.Body)
		if err != nil {
			return reply(http.StatusInternalServerError, err.Error()), nil
		}
		body, err := json.Marshal(lambdaResult{Success: out.Success, ItemID: out.ItemID})
		if err != nil {
			return reply(http.StatusInternalServerError, err.Error()), nil
		}
		return reply(http.StatusOK, string(body)), nil
	}

	logger.Error("unknown event", "keys", len(shape))
	return reply(http.StatusBadRequest, "bad event"), nil
}

func (h *LambdaHandler) process(ctx context.Context, logger *slog.Logger, body string) (*ProcessEventOutput, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		logger.Error("failed to decode payload", "error", err)
		return nil, err
	}

	out, err := h.service.ProcessEvent(ctx, ProcessEventInput{Payload: payload})
	if err != nil {
		logger.Error("handler failed", "error", err)
		return nil, err
	}
	logger.Info("processed successfully", "item_id", *out.ItemID)
	return out, nil
}

func reply(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: status, Body: body}
}
