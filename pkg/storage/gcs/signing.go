package gcs

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const storageHost = "https://storage.googleapis.com"

// serviceAccountInfo carries the key material needed for URL signing.
// Metadata-token deployments cannot sign URLs and get an explicit error.
type serviceAccountInfo struct {
	clientEmail string
	privateKey  *rsa.PrivateKey
}

// SignedURL returns a V2 signed PUT URL the browser can upload to
// directly. The content type is part of the signature, so the client must
// send exactly the type it asked for.
func (c *Client) SignedURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	if bucket == "" {
		bucket = c.defaultBucket
	}
	if err := c.validateSigning(bucket, object, expires); err != nil {
		return "", err
	}
	if contentType == "" {
		return "", errors.New("content type is required")
	}

	expiration := time.Now().Add(expires).Unix()
	payload := "PUT\n\n" + contentType + "\n" + strconv.FormatInt(expiration, 10) + "\n/" + bucket + "/" + object
	signature, err := c.sign(payload)
	if err != nil {
		return "", err
	}
	return c.buildSignedURL(bucket, object, expiration, signature), nil
}

// SignedReadURL returns a V2 signed GET URL for a private object.
func (c *Client) SignedReadURL(bucket, object string, expires time.Duration) (string, error) {
	if bucket == "" {
		bucket = c.defaultBucket
	}
	if err := c.validateSigning(bucket, object, expires); err != nil {
		return "", err
	}

	expiration := time.Now().Add(expires).Unix()
	payload := "GET\n\n\n" + strconv.FormatInt(expiration, 10) + "\n/" + bucket + "/" + object
	signature, err := c.sign(payload)
	if err != nil {
		return "", err
	}
	return c.buildSignedURL(bucket, object, expiration, signature), nil
}

// DeleteObject removes an object. A missing object is not an error; the
// caller only cares that it is gone.
func (c *Client) DeleteObject(ctx context.Context, bucket, object string) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	if bucket == "" {
		bucket = c.defaultBucket
	}
	if bucket == "" || object == "" {
		return errors.New("bucket and object are required")
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/storage/v1/b/%s/o/%s",
		storageHost, url.PathEscape(bucket), url.PathEscape(object))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gcs delete returned %s: %s", resp.Status, string(body))
	}
}

func (c *Client) validateSigning(bucket, object string, expires time.Duration) error {
	if c == nil || c.serviceAccount == nil || c.serviceAccount.privateKey == nil {
		return errors.New("url signing requires service account credentials")
	}
	if bucket == "" {
		return errors.New("bucket is required")
	}
	if object == "" {
		return errors.New("object is required")
	}
	if expires <= 0 {
		return errors.New("expiry must be positive")
	}
	return nil
}

func (c *Client) sign(payload string) (string, error) {
	hash := sha256.Sum256([]byte(payload))
	signature, err := rsa.SignPKCS1v15(rand.Reader, c.serviceAccount.privateKey, crypto.SHA256, hash[:])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}

func (c *Client) buildSignedURL(bucket, object string, expiration int64, signature string) string {
	query := url.Values{}
	query.Set("GoogleAccessId", c.serviceAccount.clientEmail)
	query.Set("Expires", strconv.FormatInt(expiration, 10))
	query.Set("Signature", signature)
	return fmt.Sprintf("%s/%s/%s?%s", storageHost, bucket, object, query.Encode())
}
