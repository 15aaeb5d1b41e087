// Package blockstore is the wire-level client to an external
// content-addressed block store (§4.2): put/get blocks, add/hash byte
// streams, fetch by identifier. The request shape — multipart upload,
// bearer-token auth, JSON response decode — follows the teacher's Estuary
// pinning-service client; unlike that client, every failure is wrapped and
// returned rather than printed and swallowed.
package blockstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/mountfs/mount/block"
	"github.com/mountfs/mount/merrors"
)

// Client is an HTTP client to a remote block store. All operations are
// asynchronous (take a context) and may fail transiently with a Transport
// error (§4.2).
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a Client against baseURL, authenticating with token (empty
// for an unauthenticated store).
func New(baseURL, token string) *Client {
	return &Client{baseURL: baseURL, token: token, http: &http.Client{}}
}

type addResponse struct {
	CID string `json:"cid"`
}

type pinnedResponse struct {
	Pinned bool `json:"pinned"`
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
}

// Hash asks the store to compute an identifier without persisting.
func (c *Client) Hash(ctx context.Context, data []byte) (block.Identifier, error) {
	return c.submit(ctx, "/hash", data)
}

// Add persists data and returns its identifier.
func (c *Client) Add(ctx context.Context, data []byte) (block.Identifier, error) {
	return c.submit(ctx, "/add", data)
}

func (c *Client) submit(ctx context.Context, route string, data []byte) (block.Identifier, error) {
	payload := &bytes.Buffer{}
	writer := multipart.NewWriter(payload)
	part, err := writer.CreateFormFile("data", "block")
	if err != nil {
		return block.Identifier{}, merrors.Transport(err)
	}
	if _, err := part.Write(data); err != nil {
		return block.Identifier{}, merrors.Transport(err)
	}
	if err := writer.Close(); err != nil {
		return block.Identifier{}, merrors.Transport(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, payload)
	if err != nil {
		return block.Identifier{}, merrors.Transport(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	res, err := c.http.Do(req)
	if err != nil {
		return block.Identifier{}, merrors.Transport(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return block.Identifier{}, merrors.Transport(err)
	}
	if res.StatusCode != http.StatusOK {
		return block.Identifier{}, merrors.Transport(fmt.Errorf("store returned %s: %s", res.Status, body))
	}

	var parsed addResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return block.Identifier{}, merrors.DecodeError(err)
	}
	return block.ParseIdentifier(parsed.CID)
}

// Get retrieves the raw bytes for id; fails with NotFound if the store does
// not have the block.
func (c *Client) Get(ctx context.Context, id block.Identifier) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/block/"+id.String(), nil)
	if err != nil {
		return nil, merrors.Transport(err)
	}
	c.authorize(req)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, merrors.Transport(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, merrors.NotFound(id.String())
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, merrors.Transport(err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, merrors.Transport(fmt.Errorf("store returned %s: %s", res.Status, body))
	}
	return body, nil
}

// PutBlock persists a typed block (manifest or node) under its explicit
// codec, asserting the store's returned identifier matches the one we
// derived locally — a mismatch indicates a codec determinism bug
// (IdentifierMismatch, per §4.4's push description).
func (c *Client) PutBlock(ctx context.Context, b block.Block) error {
	got, err := c.Add(ctx, b.RawData())
	if err != nil {
		return err
	}
	if !got.Equal(b.Identifier()) {
		return merrors.IdentifierMismatch(b.Identifier().String(), got.String())
	}
	return nil
}

// Pinned reports whether the store currently holds id.
func (c *Client) Pinned(ctx context.Context, id block.Identifier) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pinned/"+id.String(), nil)
	if err != nil {
		return false, merrors.Transport(err)
	}
	c.authorize(req)

	res, err := c.http.Do(req)
	if err != nil {
		return false, merrors.Transport(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return false, merrors.Transport(err)
	}
	if res.StatusCode != http.StatusOK {
		return false, merrors.Transport(fmt.Errorf("store returned %s: %s", res.Status, body))
	}

	var parsed pinnedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false, merrors.DecodeError(err)
	}
	return parsed.Pinned, nil
}
