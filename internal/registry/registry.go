package registry

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tldr-it-stepankutaj/releasekit/internal/artifact"
)

// Client uploads built artifacts to a package registry.
type Client struct {
	BaseURL string
	Token   string

	httpClient *http.Client
}

// New returns a Client for the given registry endpoint.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Publish uploads the artifact as a multipart POST to
// <base>/packages/<name>/<version>. Any non-2xx response is an error.
func (c *Client) Publish(ctx context.Context, a *artifact.Artifact) error {
	if c.BaseURL == "" {
		return fmt.Errorf("registry URL is not configured")
	}

	f, err := os.Open(a.Path)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUpload(mw, a, f)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	url := fmt.Sprintf("%s/packages/%s/%s", c.BaseURL, a.Name, a.Version)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("registry rejected upload: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

func writeUpload(mw *multipart.Writer, a *artifact.Artifact, f *os.File) error {
	if err := mw.WriteField("sha256", a.SHA256); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("archive", filepath.Base(a.Path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
