package rest

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"tradelog/internal/broker"
)

func doRequest[T any](ctx context.Context, c *Client, method, path string, params url.Values, body any) (T, error) {
	var zero T

	var bodyReader io.Reader
	var bodyStr string
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("Не удалось подготовить тело запроса: %w", err)
		}
		bodyStr = string(payload)
		bodyReader = bytes.NewReader(payload)
	}

	urlStr := c.baseURL + path
	query := params.Encode()
	if query != "" {
		urlStr += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, bodyReader)
	if err != nil {
		return zero, fmt.Errorf("Не удалось создать запрос: %w", err)
	}

	if c.apiKey != "" && c.secret != "" {
		timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
		signature := sign(c.secret, timestamp+c.apiKey+query+bodyStr)

		req.Header.Set("X-IBGW-API-KEY", c.apiKey)
		req.Header.Set("X-IBGW-SIGN", signature)
		req.Header.Set("X-IBGW-TIMESTAMP", timestamp)
	}

	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, fmt.Errorf("Ошибка запроса: %w", err)
	}

	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("Не удалось прочитать ответ: %w", err)
	}

	var out gatewayResponse[T]
	if err := json.Unmarshal(data, &out); err != nil {
		if resp.StatusCode >= 400 {
			return zero, fmt.Errorf("Неуспешный статус: %s", resp.Status)
		}
		return zero, fmt.Errorf("Не удалось разобрать ответ: %w", err)
	}

	if out.Code != 0 {
		return zero, &broker.GatewayError{Code: out.Code, Message: out.Message}
	}

	if resp.StatusCode >= 400 {
		return zero, fmt.Errorf("Неуспешный статус: %s", resp.Status)
	}

	return out.Result, nil
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
