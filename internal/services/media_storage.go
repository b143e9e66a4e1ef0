package services

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/nihalvp321/ekarbot-server/internal/config"
)

// MediaStorage uploads message attachments (files, images, voice notes)
// to Cloudinary via signed uploads and returns the hosted URL.
type MediaStorage struct {
	cfg    *config.Config
	client *http.Client
}

func NewMediaStorage(cfg *config.Config) *MediaStorage {
	return &MediaStorage{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured reports whether upload credentials are present.
func (s *MediaStorage) Configured() bool {
	return s.cfg.CloudinaryCloudName != "" && s.cfg.CloudinaryAPIKey != "" && s.cfg.CloudinaryAPISecret != ""
}

// Upload pushes raw bytes under the given public id. contentType decides
// the data URI prefix; Cloudinary's auto endpoint handles audio and
// documents as well as images.
func (s *MediaStorage) Upload(data []byte, contentType, publicID string) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("media storage is not configured")
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty upload")
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	payload := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)

	finalPublicID := publicID
	if s.cfg.CloudinaryFolder != "" {
		finalPublicID = s.cfg.CloudinaryFolder + "/" + publicID
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	signature := s.sign(map[string]string{
		"public_id": finalPublicID,
		"timestamp": timestamp,
	})

	form := url.Values{}
	form.Add("file", payload)
	form.Add("api_key", s.cfg.CloudinaryAPIKey)
	form.Add("public_id", finalPublicID)
	form.Add("timestamp", timestamp)
	form.Add("signature", signature)

	endpoint := "https://api.cloudinary.com/v1_1/" + s.cfg.CloudinaryCloudName + "/auto/upload"
	resp, err := s.client.Post(endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
		Error     struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("upload rejected: %s", result.Error.Message)
	}
	if result.SecureURL != "" {
		return result.SecureURL, nil
	}
	if result.URL != "" {
		return result.URL, nil
	}
	return "", fmt.Errorf("upload response carried no URL")
}

// sign builds the SHA-1 signature over the sorted upload params.
func (s *MediaStorage) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}
	sb.WriteString(s.cfg.CloudinaryAPISecret)

	sum := sha1.Sum([]byte(sb.String()))
	return fmt.Sprintf("%x", sum)
}
