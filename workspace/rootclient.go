package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mountfs/mount/block"
	"github.com/mountfs/mount/merrors"
	"github.com/mountfs/mount/rootptr"
)

// RootClient is the client-side half of §6.2's `/api/v0/root` endpoint: it
// lets a workspace pull and push the canonical root the same way mountd's
// own rootptr.Coordinator does, which is why it implements that interface —
// a workspace can hand a *RootClient anywhere a rootptr.Coordinator is
// expected (rootptr.Push, for instance), even though the actual
// compare-and-swap happens on the other end of the wire.
type RootClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewRootClient returns a client against the mount daemon's base URL.
func NewRootClient(baseURL, token string) *RootClient {
	return &RootClient{baseURL: baseURL, token: token, http: &http.Client{}}
}

var _ rootptr.Coordinator = (*RootClient)(nil)

type rootResponse struct {
	CID string `json:"cid"`
}

type pushRootRequest struct {
	CID         string `json:"cid"`
	PreviousCID string `json:"previous_cid"`
}

func (c *RootClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
}

// PullRoot fetches the current head.
func (c *RootClient) PullRoot(ctx context.Context) (block.Identifier, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v0/root", nil)
	if err != nil {
		return block.Identifier{}, merrors.Transport(err)
	}
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
		return block.Identifier{}, merrors.Transport(fmt.Errorf("root endpoint returned %s: %s", res.Status, body))
	}

	var parsed rootResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return block.Identifier{}, merrors.DecodeError(err)
	}
	return block.ParseIdentifier(parsed.CID)
}

// PushRoot advances the daemon's head from previousRoot to root, per
// §6.2's POST /api/v0/root (400 invalid link, 409 conflict).
func (c *RootClient) PushRoot(ctx context.Context, root, previousRoot block.Identifier) error {
	payload, err := json.Marshal(pushRootRequest{CID: root.String(), PreviousCID: previousRoot.String()})
	if err != nil {
		return merrors.EncodeError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v0/root", bytes.NewReader(payload))
	if err != nil {
		return merrors.Transport(err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	res, err := c.http.Do(req)
	if err != nil {
		return merrors.Transport(err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest:
		return merrors.InvalidLink(root.String())
	case http.StatusConflict:
		return merrors.Conflict(previousRoot.String())
	default:
		return merrors.Transport(fmt.Errorf("root endpoint returned %s: %s", res.Status, body))
	}
}
