package net

import (
	"compress/gzip"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

const userAgent = "htmlpdf/1.0 (compatible; Go)"

// MaxBodySize caps every fetched body.
const MaxBodySize = 32 << 20

// ErrTooLarge is returned when a body exceeds MaxBodySize.
var ErrTooLarge = errors.New("response body too large")

// NewClient returns an HTTP client that negotiates brotli and gzip and
// hands callers the decoded body.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewDecompressingTransport(nil),
	}
}

// DecompressingTransport advertises br and gzip and unwraps the response
// body according to Content-Encoding.
type DecompressingTransport struct {
	Transport http.RoundTripper
}

func NewDecompressingTransport(base http.RoundTripper) *DecompressingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &DecompressingTransport{Transport: base}
}

func (t *DecompressingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", "br, gzip")
	}
	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if err := decompress(resp); err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("decoding response body: %w", err)
	}
	return resp, nil
}

type wrappedBody struct {
	io.Reader
	closer io.Closer
}

func (w wrappedBody) Close() error { return w.closer.Close() }

func decompress(resp *http.Response) error {
	encodings := resp.Header.Values("Content-Encoding")
	if len(encodings) == 0 || resp.Body == nil {
		return nil
	}
	for i := len(encodings) - 1; i >= 0; i-- {
		switch enc := strings.ToLower(strings.TrimSpace(encodings[i])); enc {
		case "br":
			resp.Body = wrappedBody{Reader: brotli.NewReader(resp.Body), closer: resp.Body}
		case "gzip", "x-gzip":
			zr, err := gzip.NewReader(resp.Body)
			if err != nil {
				return err
			}
			resp.Body = wrappedBody{Reader: zr, closer: resp.Body}
		case "identity", "":
		default:
			return fmt.Errorf("unsupported Content-Encoding %q", enc)
		}
	}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}

// Fetch retrieves the content at rawURL via HTTP/HTTPS.
// Returns the response body, content type, and any error.
func Fetch(ctx context.Context, client *http.Client, rawURL string) (body []byte, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, rawURL)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > MaxBodySize {
		return nil, "", fmt.Errorf("fetching %s: %w", rawURL, ErrTooLarge)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// ResolveURL resolves a possibly-relative URI against a base URL.
// If ref is already absolute, or base is empty, ref is returned as-is.
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if base == "" || IsDataURL(ref) {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

// IsNetworkURL returns true if the string looks like an HTTP or HTTPS URL.
func IsNetworkURL(s string) bool {
	s = strings.ToLower(s)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func IsDataURL(s string) bool {
	return len(s) >= 5 && strings.EqualFold(s[:5], "data:")
}

// DecodeDataURL returns the payload and media type of a data: URL. The
// payload may be base64 or percent-encoded.
func DecodeDataURL(s string) ([]byte, string, error) {
	if !IsDataURL(s) {
		return nil, "", fmt.Errorf("not a data URL")
	}
	header, payload, ok := strings.Cut(s[5:], ",")
	if !ok {
		return nil, "", fmt.Errorf("data URL without payload")
	}
	mediaType := "text/plain"
	isBase64 := false
	for i, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		switch {
		case i == 0 && part != "":
			mediaType = strings.ToLower(part)
		case strings.EqualFold(part, "base64"):
			isBase64 = true
		}
	}
	if isBase64 {
		payload = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, payload)
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, "", fmt.Errorf("decoding base64 data URL: %w", err)
		}
		return data, mediaType, nil
	}
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decoding data URL: %w", err)
	}
	return []byte(decoded), mediaType, nil
}
