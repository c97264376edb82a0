package rest

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tradingiq/gmocoin-client/types"
)

const (
	headerAPIKey       = "API-KEY"
	headerAPITimestamp = "API-TIMESTAMP"
	headerAPISign      = "API-SIGN"
)

func (c *Client) AccountMargin(ctx context.Context) (types.AccountMargin, error) {
	return getPrivate[types.AccountMargin](ctx, c, "/v1/account/margin")
}

func getPrivate[T any](ctx context.Context, c *Client, path string) (T, error) {
	var zero T

	req, err := c.signedRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return zero, err
	}
	return do[T](c, req)
}

func (c *Client) signedRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	if c.apiKey == "" || c.apiSecret == "" {
		return nil, ErrMissingCredentials
	}

	req, err := http.NewRequestWithContext(ctx, method, c.privateURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gmocoin: build request %s: %w", path, err)
	}

	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set(headerAPITimestamp, timestamp)
	req.Header.Set(headerAPISign, sign(c.apiSecret, timestamp, method, path, body))
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// sign is hex(HMAC-SHA256(secret, timestamp+method+path+body)). The path excludes the /private prefix.
func sign(secret, timestamp, method, path string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + method + path))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
