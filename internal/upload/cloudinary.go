package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// CloudinaryConfig holds the settings for the hosted image service
type CloudinaryConfig struct {
	CloudName    string
	UploadPreset string
	BaseURL      string // overridable for tests
}

// CloudinaryUploader uploads images to Cloudinary's unsigned upload endpoint
type CloudinaryUploader struct {
	config CloudinaryConfig
	client *http.Client
}

// NewCloudinaryUploader creates a new CloudinaryUploader
func NewCloudinaryUploader(config CloudinaryConfig) *CloudinaryUploader {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.cloudinary.com/v1_1"
	}
	if config.UploadPreset == "" {
		config.UploadPreset = "ml_default"
	}

	return &CloudinaryUploader{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload sends one file as a multipart form and returns the secure URL
func (u *CloudinaryUploader) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to copy file contents: %w", err)
	}
	if err := writer.WriteField("upload_preset", u.config.UploadPreset); err != nil {
		return "", fmt.Errorf("failed to write upload preset: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", u.config.BaseURL, u.config.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image service returned status %d", resp.StatusCode)
	}

	var uploaded cloudinaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if uploaded.SecureURL == "" {
		return "", fmt.Errorf("image service returned no url")
	}

	return uploaded.SecureURL, nil
}
