// Package trello moves a plugin's card on the release board once a
// WooCommerce.com deploy is out, and links the release on the card.
package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/skyverge/sake/internal/model"
)

// DefaultBaseURL is the Trello REST API host.
const DefaultBaseURL = "https://api.trello.com"

// DeployListName is the list cards are moved to after a deploy.
const DeployListName = "Deploy Update"

// Client is a minimal Trello REST client.
type Client struct {
	BaseURL string
	Key     string
	Token   string
	HTTP    *http.Client
	Log     *zap.Logger
}

// NewClient creates a client using an API key and token.
func NewClient(key, token string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL: DefaultBaseURL,
		Key:     key,
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Log:     log,
	}
}

type board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type list struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Card is a Trello card.
type Card struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UpdateDeployCard finds the card for pluginID on boardID, moves it to
// the "Deploy Update" list and comments releaseURL on it.
func (c *Client) UpdateDeployCard(ctx context.Context, boardID, pluginID, releaseURL string) (*Card, error) {
	var b board
	if err := c.call(ctx, http.MethodGet, "/1/boards/"+url.PathEscape(boardID), nil, &b); err != nil {
		return nil, err
	}
	if b.ID == "" {
		return nil, model.NewCLIError(model.ExitRemoteError, fmt.Sprintf("Trello board %s not found", boardID))
	}

	var lists []list
	if err := c.call(ctx, http.MethodGet, "/1/boards/"+b.ID+"/lists", nil, &lists); err != nil {
		return nil, err
	}
	var target *list
	for i := range lists {
		if lists[i].Name == DeployListName {
			target = &lists[i]
			break
		}
	}
	if target == nil {
		return nil, model.NewCLIError(model.ExitRemoteError, fmt.Sprintf("No %q list found on board %s", DeployListName, boardID))
	}

	var search struct {
		Cards []Card `json:"cards"`
	}
	q := url.Values{
		"query":        {pluginID},
		"modelTypes":   {"cards"},
		"idBoards":     {b.ID},
		"board_fields": {"name"},
		"cards_limit":  {"1"},
	}
	if err := c.call(ctx, http.MethodGet, "/1/search", q, &search); err != nil {
		return nil, err
	}
	if len(search.Cards) == 0 {
		return nil, model.NewCLIError(model.ExitRemoteError, "No cards found for "+pluginID)
	}
	card := search.Cards[len(search.Cards)-1]

	if err := c.call(ctx, http.MethodPut, "/1/cards/"+card.ID, url.Values{"idList": {target.ID}}, nil); err != nil {
		return nil, err
	}
	if err := c.call(ctx, http.MethodPost, "/1/cards/"+card.ID+"/actions/comments", url.Values{"text": {releaseURL}}, nil); err != nil {
		return nil, err
	}

	c.Log.Info("Trello card updated", zap.String("card", card.Name), zap.String("list", target.Name))
	return &card, nil
}

func (c *Client) call(ctx context.Context, method, p string, query url.Values, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.Key)
	query.Set("token", c.Token)

	u := strings.TrimSuffix(c.BaseURL, "/") + p + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return model.WrapCLIError(model.ExitRemoteError, "An error occurred while updating Trello card", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return model.NewCLIError(model.ExitRemoteError,
			fmt.Sprintf("An error occurred while updating Trello card: %s %s: %s", method, p, strings.TrimSpace(string(body))))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return model.WrapCLIError(model.ExitRemoteError, "unexpected Trello response", err)
	}
	return nil
}
