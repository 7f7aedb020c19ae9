package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"pcshop/internal/apperror"
	"pcshop/internal/logger"

	"go.uber.org/zap"
)

const imgbbBaseURL = "https://api.imgbb.com/1/upload"

type Result struct {
	URL       string `json:"url"`
	DeleteURL string `json:"deleteUrl"`
}

type Gateway interface {
	Upload(ctx context.Context, filename string, content []byte) (*Result, error)
}

type imgbbGateway struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewImgBBGateway(apiKey string) Gateway {
	if apiKey == "" {
		logger.L().Warn("ImgBB API key is empty")
	}

	return &imgbbGateway{
		apiKey:  apiKey,
		baseURL: imgbbBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
		DeleteURL  string `json:"delete_url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (g *imgbbGateway) Upload(ctx context.Context, filename string, content []byte) (*Result, error) {
	if g.apiKey == "" {
		return nil, ErrNotConfigured
	}

	log := logger.FromCtx(ctx).With(
		zap.String("filename", filename),
		zap.Int("size", len(content)),
	)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	endpoint := g.baseURL + "?key=" + url.QueryEscape(g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Error("ImgBB request failed", zap.Error(err))
		return nil, apperror.Wrap(apperror.BadGateway, "image host unavailable", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read imgbb response: %w", err)
	}

	var parsed imgbbResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		log.Error("Invalid ImgBB response",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(bodyBytes)),
		)
		return nil, apperror.Wrap(apperror.BadGateway, "invalid response from image host", err)
	}

	if resp.StatusCode >= 300 || !parsed.Success {
		msg := parsed.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		log.Warn("ImgBB rejected upload",
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return nil, apperror.New(apperror.BadGateway, "image host error: "+msg)
	}

	imageURL := parsed.Data.URL
	if imageURL == "" {
		imageURL = parsed.Data.DisplayURL
	}

	log.Info("Image uploaded", zap.String("url", imageURL))
	return &Result{URL: imageURL, DeleteURL: parsed.Data.DeleteURL}, nil
}
