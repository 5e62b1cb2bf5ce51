package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"go.uber.org/zap"
)

const chainSafeNFTPath = "/api/v1/nft"

// ChainSafeStorage uploads NFTs through a ChainSafe-style files API: the image and metadata
// fields go up as one multipart request and the API answers with the metadata CID.
type ChainSafeStorage struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewChainSafeStorage(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *ChainSafeStorage {
	return &ChainSafeStorage{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type chainSafeUploadResponse struct {
	CID string `json:"cid"`
}

func (storage *ChainSafeStorage) UploadNFT(ctx context.Context, metadata NFTMetadata, hashAlgorithm string) (string, error) {
	if metadata.Image == nil {
		return "", fmt.Errorf("%w: no image to upload", ErrUpstreamFetch)
	}

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	if err := w.WriteField("name", metadata.Name); err != nil {
		return "", err
	}
	if err := w.WriteField("description", metadata.Description); err != nil {
		return "", err
	}
	if hashAlgorithm != "" {
		if err := w.WriteField("hash_algorithm", hashAlgorithm); err != nil {
			return "", err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, metadata.Image.Name))
	header.Set("Content-Type", metadata.Image.ContentType)
	fw, err := w.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, bytes.NewReader(metadata.Image.Data)); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, storage.baseURL+chainSafeNFTPath, &b)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+storage.apiKey)

	resp, err := storage.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: storage request failed: %v", ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		storage.logger.Error("storage upload rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("errorBody", string(errorBody)),
		)
		return "", fmt.Errorf("%w: storage returned status %d", ErrUpstreamFetch, resp.StatusCode)
	}

	var payload chainSafeUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decoding storage response: %v", ErrUpstreamFetch, err)
	}
	if payload.CID == "" {
		return "", fmt.Errorf("%w: storage response has no cid", ErrUpstreamFetch)
	}
	return payload.CID, nil
}
