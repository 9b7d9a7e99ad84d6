package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// requestTimeout — повисший вызов считаем NetworkError, а не ждём вечно.
const requestTimeout = 15 * time.Second

// APIClient — тонкая обёртка над REST-бэкендом (base path /api).
// Ретраев нет: все операции инициирует пользователь, повтор — его клик.
type APIClient struct {
	baseURL string
	http    *http.Client
	session *Session

	// дергается при 401, после сброса сессии
	onAuthExpired func()
}

func NewAPIClient(baseURL string, session *Session, onAuthExpired func()) *APIClient {
	return &APIClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          &http.Client{Timeout: requestTimeout},
		session:       session,
		onAuthExpired: onAuthExpired,
	}
}

func (c *APIClient) do(method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// глобальный teardown: чистим сессию независимо от того,
		// какой вызов словил 401
		c.session.Clear()
		if c.onAuthExpired != nil {
			c.onAuthExpired()
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrAuth)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServerError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return respBody, nil
}

func (c *APIClient) Get(path string) ([]byte, error) {
	return c.do(http.MethodGet, path, nil)
}

func (c *APIClient) Post(path string, body any) ([]byte, error) {
	return c.do(http.MethodPost, path, body)
}

func (c *APIClient) Put(path string, body any) ([]byte, error) {
	return c.do(http.MethodPut, path, body)
}

func (c *APIClient) Delete(path string) ([]byte, error) {
	return c.do(http.MethodDelete, path, nil)
}

func decodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}
