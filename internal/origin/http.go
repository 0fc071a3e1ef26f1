package origin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type httpStore struct {
	base   *url.URL
	client *http.Client
}

// NewHTTP 以 <BaseURL>/<key> 模板从源站 GET 对象。
func NewHTTP(baseURL string, client *http.Client) (Store, error) {
	if baseURL == "" {
		return nil, errors.New("origin base url required")
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse origin base url: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &httpStore{base: parsed, client: client}, nil
}

func (s *httpStore) Kind() string { return "http" }

func (s *httpStore) Get(ctx context.Context, key string) (*Object, error) {
	target := *s.base
	target.Path = s.base.Path + "/" + strings.TrimLeft(key, "/")
	target.RawPath = ""

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		drain(resp.Body)
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		drain(resp.Body)
		return nil, fmt.Errorf("origin responded %d for %s", resp.StatusCode, key)
	}

	obj := &Object{Body: resp.Body, Size: resp.ContentLength}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if parsed, err := http.ParseTime(lm); err == nil {
			obj.ModTime = parsed.UTC()
		}
	}
	return obj, nil
}

func drain(body io.ReadCloser) {
	io.Copy(io.Discard, io.LimitReader(body, 64*1024))
	body.Close()
}
