// Package media checks and uploads project images to the Cloudinary CDN.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Zachkp/folio/internal/domain"
)

// MaxImageBytes is the largest accepted image.
const MaxImageBytes int64 = 5 * 1024 * 1024

// SniffLen is how much of a file Validate needs to see.
const SniffLen = 3072

var (
	ErrNotImage = errors.New("media: not an image")
	ErrTooLarge = errors.New("media: image exceeds 5 MiB")
)

// UserMessage is the text shown next to the upload control.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotImage):
		return "Please select a valid image file"
	case errors.Is(err, ErrTooLarge):
		return "Image size must be less than 5MB"
	case errors.Is(err, domain.ErrNotConfigured):
		return "Image upload is not configured"
	}
	return "Failed to upload image. Please try again."
}

// Validate rejects anything that is not an image of at most MaxImageBytes.
// Both the declared media type and the sniffed content must say image.
func Validate(size int64, head []byte, declaredType string) error {
	if declaredType != "" && !strings.HasPrefix(strings.ToLower(declaredType), "image/") {
		return ErrNotImage
	}
	if !strings.HasPrefix(mimetype.Detect(head).String(), "image/") {
		return ErrNotImage
	}
	if size > MaxImageBytes {
		return ErrTooLarge
	}
	return nil
}

const defaultAPIBase = "https://api.cloudinary.com/v1_1"

type Uploader struct {
	cloudName string
	preset    string
	apiBase   string
	http      *http.Client
}

type Option func(*Uploader)

func WithAPIBase(base string) Option {
	return func(u *Uploader) { u.apiBase = strings.TrimRight(base, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(u *Uploader) { u.http = h }
}

func NewUploader(cloudName, preset string, opts ...Option) *Uploader {
	u := &Uploader{
		cloudName: cloudName,
		preset:    preset,
		apiBase:   defaultAPIBase,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *Uploader) Configured() bool {
	return u.cloudName != "" && u.preset != ""
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload posts the file with the unsigned upload preset and returns the
// public https URL.
func (u *Uploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if !u.Configured() {
		return "", fmt.Errorf("cloudinary cloud name and preset: %w", domain.ErrNotConfigured)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if err := mw.WriteField("upload_preset", u.preset); err != nil {
		return "", err
	}
	if err := mw.WriteField("cloud_name", u.cloudName); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/image/upload", u.apiBase, u.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.http.Do(req)
	if err != nil {
		log.Printf("[media] Error uploading image: %v", err)
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && resp.StatusCode < 300 {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		log.Printf("[media] Upload failed: %s", msg)
		return "", fmt.Errorf("upload failed: %s (status %d)", msg, resp.StatusCode)
	}
	if out.SecureURL == "" {
		return "", errors.New("upload failed: no secure_url in response")
	}
	return out.SecureURL, nil
}

// Transform is a Cloudinary delivery transformation. Zero fields fall back to
// the card defaults: 400x300, fill crop, automatic quality and format.
type Transform struct {
	Width   int
	Height  int
	Crop    string
	Quality string
	Format  string
}

func (t Transform) String() string {
	if t.Width == 0 {
		t.Width = 400
	}
	if t.Height == 0 {
		t.Height = 300
	}
	if t.Crop == "" {
		t.Crop = "fill"
	}
	if t.Quality == "" {
		t.Quality = "auto"
	}
	if t.Format == "" {
		t.Format = "auto"
	}
	return fmt.Sprintf("w_%d,h_%d,c_%s,q_%s,f_%s", t.Width, t.Height, t.Crop, t.Quality, t.Format)
}

// OptimizedURL builds the delivery URL for an uploaded image.
func OptimizedURL(cloudName, publicID string, t Transform) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s/%s", cloudName, t, strings.TrimLeft(publicID, "/"))
}

const deliveryHost = "https://res.cloudinary.com/"

// Optimize rewrites a plain Cloudinary delivery URL to carry t. Other URLs,
// including manually entered ones, come back unchanged.
func Optimize(rawURL string, t Transform) string {
	if !strings.HasPrefix(rawURL, deliveryHost) {
		return rawURL
	}
	rest := strings.TrimPrefix(rawURL, deliveryHost)
	cloud, path, ok := strings.Cut(rest, "/image/upload/")
	if !ok || cloud == "" || strings.Contains(cloud, "/") {
		return rawURL
	}
	// already transformed
	if first, _, _ := strings.Cut(path, "/"); strings.Contains(first, "_") && strings.Contains(first, ",") {
		return rawURL
	}
	return OptimizedURL(cloud, path, t)
}
