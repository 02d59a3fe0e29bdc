package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"invoice-scanner/internal/models"
	"invoice-scanner/pkg/config"

	"github.com/Azure/go-autorest/autorest"
	"go.uber.org/zap"
)

const (
	statusNotStarted = "notStarted"
	statusRunning    = "running"
	statusSucceeded  = "succeeded"
	statusFailed     = "failed"
)

// AzureClient calls Azure AI Document Intelligence prebuilt models.
type AzureClient struct {
	client       autorest.Client
	endpoint     string
	apiKey       string
	apiVersion   string
	models       ModelSet
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       *zap.Logger
}

func NewAzureClient(cfg config.ExtractionConfig, logger *zap.Logger) *AzureClient {
	client := autorest.NewClientWithUserAgent("invoice-scanner")
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(cfg.APIKey)
	client.Sender = &http.Client{Timeout: cfg.RequestTimeout}

	return &AzureClient{
		client:       client,
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		apiVersion:   cfg.APIVersion,
		models:       ModelSet{Invoice: cfg.InvoiceModel, Receipt: cfg.ReceiptModel},
		pollInterval: cfg.PollInterval,
		pollTimeout:  cfg.PollTimeout,
		logger:       logger,
	}
}

func (c *AzureClient) Analyze(ctx context.Context, data []byte, mimeType string, kind models.DocumentKind) (*models.RawExtractionResult, error) {
	if c.endpoint == "" || c.apiKey == "" {
		return nil, fmt.Errorf("%w: set DOC_INTELLIGENCE_ENDPOINT and DOC_INTELLIGENCE_KEY", ErrNotConfigured)
	}

	modelID := c.models.For(kind)
	start := time.Now()

	operationURL, err := c.beginAnalyze(ctx, modelID, data, mimeType)
	if err != nil {
		return nil, err
	}

	op, err := c.pollUntilDone(ctx, operationURL)
	if err != nil {
		return nil, err
	}

	result, err := decodeAnalyzeResult(op.AnalyzeResult)
	if err != nil {
		return nil, err
	}
	if result.ModelID == "" {
		result.ModelID = modelID
	}

	c.logger.Info("Document analyzed",
		zap.String("model", modelID),
		zap.Int("fields", len(result.Fields)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (c *AzureClient) beginAnalyze(ctx context.Context, modelID string, data []byte, mimeType string) (string, error) {
	req, err := autorest.Prepare((&http.Request{}).WithContext(ctx),
		autorest.AsPost(),
		autorest.WithBaseURL(fmt.Sprintf("%s/formrecognizer/documentModels/%s:analyze", c.endpoint, modelID)),
		autorest.WithQueryParameters(map[string]interface{}{"api-version": c.apiVersion}),
		autorest.AsContentType(mimeType),
		autorest.WithBytes(&data),
	)
	if err != nil {
		return "", fmt.Errorf("%w: invalid endpoint: %v", ErrNotConfigured, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &TransportError{Op: "analyze", Err: err}
	}
	if resp.StatusCode != http.StatusAccepted {
		return "", classifyResponse("analyze", resp)
	}
	_ = autorest.Respond(resp, autorest.ByDiscardingBody(), autorest.ByClosing())

	location := resp.Header.Get("Operation-Location")
	if location == "" {
		return "", &TransportError{Op: "analyze", StatusCode: resp.StatusCode, Err: errors.New("missing Operation-Location header")}
	}
	return location, nil
}

func (c *AzureClient) pollUntilDone(ctx context.Context, operationURL string) (*analyzeOperation, error) {
	deadline := time.Now().Add(c.pollTimeout)

	for {
		op, wait, err := c.getOperation(ctx, operationURL)
		if err != nil {
			return nil, err
		}

		switch op.Status {
		case statusSucceeded:
			return op, nil
		case statusFailed:
			return nil, fmt.Errorf("%w: analysis failed: %s", ErrNoDataExtracted, op.Error)
		case statusNotStarted, statusRunning:
		default:
			return nil, &TransportError{Op: "poll", Err: fmt.Errorf("unexpected operation status %q", op.Status)}
		}

		if time.Now().Add(wait).After(deadline) {
			return nil, &TransportError{Op: "poll", Err: fmt.Errorf("analysis not finished after %s", c.pollTimeout)}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &TransportError{Op: "poll", Err: ctx.Err()}
		case <-timer.C:
		}
	}
}

func (c *AzureClient) getOperation(ctx context.Context, operationURL string) (*analyzeOperation, time.Duration, error) {
	req, err := autorest.Prepare((&http.Request{}).WithContext(ctx),
		autorest.AsGet(),
		autorest.WithBaseURL(operationURL),
	)
	if err != nil {
		return nil, 0, &TransportError{Op: "poll", Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Op: "poll", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, classifyResponse("poll", resp)
	}

	wait := retryAfter(resp, c.pollInterval)

	var op analyzeOperation
	if err := autorest.Respond(resp, autorest.ByUnmarshallingJSON(&op), autorest.ByClosing()); err != nil {
		return nil, 0, &TransportError{Op: "poll", StatusCode: resp.StatusCode, Err: err}
	}
	return &op, wait, nil
}

// classifyResponse turns a non-success provider response into the gateway's
// error taxonomy and closes the body.
func classifyResponse(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
	detail := strings.TrimSpace(string(body))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return fmt.Errorf("%w: provider returned %d: %s", ErrNotConfigured, resp.StatusCode, detail)
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: provider rejected document (%d): %s", ErrNoDataExtracted, resp.StatusCode, detail)
	default:
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(detail)}
	}
}

func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}
