package extractor

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"invoice-scanner/internal/models"
	"invoice-scanner/pkg/config"

	"github.com/Role1776/gigago"
	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	gigaChatBaseURL  = "https://gigachat.devices.sberbank.ru/api/v1"
	gigaChatOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
)

// GigaChatClient extracts invoice fields with a GigaChat model. PDFs are
// converted to text locally; images go through the vision endpoint.
type GigaChatClient struct {
	cfg        config.GigaChatConfig
	client     *gigago.Client
	model      *gigago.GenerativeModel
	httpClient *http.Client
	baseURL    string
	oauthURL   string
	logger     *zap.Logger
	initErr    error

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewGigaChatClient(ctx context.Context, cfg config.GigaChatConfig, logger *zap.Logger) *GigaChatClient {
	httpClient := &http.Client{Timeout: 60 * time.Second}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	c := &GigaChatClient{
		cfg:        cfg,
		httpClient: httpClient,
		baseURL:    gigaChatBaseURL,
		oauthURL:   gigaChatOAuthURL,
		logger:     logger,
	}

	if cfg.APIKey == "" {
		c.initErr = fmt.Errorf("%w: set GIGACHAT_API_KEY", ErrNotConfigured)
		return c
	}

	opts := []gigago.Option{gigago.WithCustomScope(cfg.Scope)}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
	}
	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		logger.Error("Failed to create GigaChat client", zap.Error(err))
		c.initErr = fmt.Errorf("%w: %v", ErrNotConfigured, err)
		return c
	}

	c.client = client
	c.model = client.GenerativeModel(cfg.Model)
	c.model.SystemInstruction = extractionInstruction
	c.model.Temperature = 0.1
	return c
}

func (c *GigaChatClient) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}

func (c *GigaChatClient) Analyze(ctx context.Context, data []byte, mimeType string, kind models.DocumentKind) (*models.RawExtractionResult, error) {
	if c.initErr != nil {
		return nil, c.initErr
	}

	start := time.Now()
	var (
		answer  string
		content string
		err     error
	)

	if mimeType == "application/pdf" {
		content, err = pdfText(data)
		if err != nil {
			return nil, err
		}
		answer, err = c.generate(ctx, fmt.Sprintf(textPromptTemplate, kind, content))
	} else {
		answer, err = c.analyzeImage(ctx, data, mimeType, kind)
	}
	if err != nil {
		return nil, err
	}

	result, err := parseModelAnswer(answer, kind)
	if err != nil {
		return nil, err
	}
	if content != "" {
		result.Content = models.Some(content)
	}
	result.ModelID = c.cfg.Model

	c.logger.Info("Document analyzed",
		zap.String("model", c.cfg.Model),
		zap.String("kind", string(kind)),
		zap.Int("fields", len(result.Fields)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (c *GigaChatClient) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.Generate(ctx, []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt},
	})
	if err != nil {
		return "", &TransportError{Op: "generate", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &TransportError{Op: "generate", Err: errors.New("empty completion")}
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *GigaChatClient) analyzeImage(ctx context.Context, data []byte, mimeType string, kind models.DocumentKind) (string, error) {
	if enhanced, ok := enhanceImage(data); ok {
		data, mimeType = enhanced, "image/jpeg"
	}

	token, err := c.token(ctx)
	if err != nil {
		return "", err
	}

	fileID, err := c.uploadFile(ctx, token, data, mimeType)
	if err != nil {
		return "", err
	}
	return c.vision(ctx, token, fileID, fmt.Sprintf(visionPromptTemplate, kind))
}

// token returns a cached OAuth access token, refreshing it a minute before expiry.
func (c *GigaChatClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("scope", c.cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &TransportError{Op: "oauth", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.New().String())
	req.Header.Set("Authorization", "Basic "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Op: "oauth", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyResponse("oauth", resp)
	}
	defer resp.Body.Close()

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", &TransportError{Op: "oauth", Err: err}
	}
	if oauthResp.AccessToken == "" {
		return "", &TransportError{Op: "oauth", Err: errors.New("empty access token")}
	}

	c.accessToken = oauthResp.AccessToken
	c.tokenExpiry = time.UnixMilli(oauthResp.ExpiresAt)
	if oauthResp.ExpiresAt == 0 {
		c.tokenExpiry = time.Now().Add(30 * time.Minute)
	}
	return c.accessToken, nil
}

func (c *GigaChatClient) uploadFile(ctx context.Context, token string, data []byte, mimeType string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("purpose", "general"); err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	part, err := writer.CreatePart(map[string][]string{
		"Content-Type":        {mimeType},
		"Content-Disposition": {`form-data; name="file"; filename="document"`},
	})
	if err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	if err := writer.Close(); err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &body)
	if err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", classifyResponse("upload", resp)
	}
	defer resp.Body.Close()

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	if uploadResp.ID == "" {
		return "", &TransportError{Op: "upload", Err: errors.New("upload response without file id")}
	}
	return uploadResp.ID, nil
}

func (c *GigaChatClient) vision(ctx context.Context, token, fileID, prompt string) (string, error) {
	requestBody := map[string]interface{}{
		"model": c.cfg.Model,
		"messages": []map[string]interface{}{
			{
				"role":    "system",
				"content": extractionInstruction,
			},
			{
				"role":        "user",
				"content":     prompt,
				"attachments": []string{fileID},
			},
		},
		"temperature": 0.1,
		"stream":      false,
	}
	payload, err := json.Marshal(requestBody)
	if err != nil {
		return "", &TransportError{Op: "vision", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", &TransportError{Op: "vision", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Op: "vision", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyResponse("vision", resp)
	}
	defer resp.Body.Close()

	var visionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&visionResp); err != nil {
		return "", &TransportError{Op: "vision", Err: err}
	}
	if len(visionResp.Choices) == 0 {
		return "", &TransportError{Op: "vision", Err: errors.New("empty completion")}
	}
	return visionResp.Choices[0].Message.Content, nil
}

// pdfText extracts the text layer of every page.
func pdfText(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("%w: cannot open PDF: %v", ErrNoDataExtracted, err)
	}
	defer doc.Close()

	var sb strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			continue
		}
		if pageText != "" {
			sb.WriteString(pageText)
			sb.WriteString("\n")
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: PDF has no text layer", ErrNoDataExtracted)
	}
	return text, nil
}

// enhanceImage prepares a photo for recognition. It reports false when the
// bytes cannot be decoded, in which case the original upload is sent as is.
func enhanceImage(data []byte) ([]byte, bool) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, false
	}

	var img image.Image = imaging.Grayscale(src)
	img = imaging.AdjustContrast(img, 20)
	img = imaging.Sharpen(img, 1.0)
	if b := img.Bounds(); b.Dx() > 2000 || b.Dy() > 2000 {
		img = imaging.Fit(img, 2000, 2000, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
