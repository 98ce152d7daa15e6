package declaration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Lavan1999/agentic-ai/internal/cdm"
	"github.com/Lavan1999/agentic-ai/internal/util"
)

const versionedListQuery = `query ($declaration_id: String!) {
  declaration_versioned_list(declaration_id: $declaration_id) {
    versioned_data
  }
}`

// ErrMissingEndpoint is returned when no GraphQL URL is configured.
var ErrMissingEndpoint = errors.New("declaration graphql url missing")

// Config drives the declaration client.
type Config struct {
	URL     string
	Timeout time.Duration
	Headers map[string]string
}

// Client reads declaration snapshots from the declaration GraphQL service.
type Client struct {
	httpClient *http.Client
	url        string
	headers    map[string]string
}

// NewClient constructs a client if configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.URL)
	if endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        endpoint,
		headers:    cfg.Headers,
	}, nil
}

// FetchDeclaration returns the first item of the latest declaration version.
// Missing versions, data or items are reported as cdm.ErrNotFound.
func (c *Client) FetchDeclaration(ctx context.Context, declarationID string) (*cdm.DeclarationSnapshot, error) {
	if c == nil {
		return nil, errors.New("declaration client is nil")
	}
	declarationID = strings.TrimSpace(declarationID)
	if declarationID == "" {
		return nil, cdm.ErrNotFound
	}

	body, err := json.Marshal(graphQLRequest{
		Query:     versionedListQuery,
		Variables: map[string]any{"declaration_id": declarationID},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("declaration request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("declaration api status %d", resp.StatusCode)
	}

	var payload graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode declaration response: %w", err)
	}
	if len(payload.Errors) > 0 && payload.Data == nil {
		return nil, fmt.Errorf("declaration graphql: %s", payload.Errors[0].Message)
	}

	snapshot, reason := payload.snapshot()
	if snapshot == nil {
		logrus.WithFields(logrus.Fields{
			"declaration_id": declarationID,
			"reason":         reason,
		}).Warn("declaration not available")
		return nil, cdm.ErrNotFound
	}
	return snapshot, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLResponse struct {
	Data *struct {
		VersionedList []struct {
			VersionedData *versionedData `json:"versioned_data"`
		} `json:"declaration_versioned_list"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type versionedData struct {
	Items []struct {
		HSCode           util.LooseString `json:"hsCode"`
		GoodsValue       util.LooseString `json:"goods_value"`
		GoodsDescription util.LooseString `json:"goods_description"`
		DutyFee          util.LooseString `json:"hs_code_duty_fee"`
		Quantity         util.LooseString `json:"static_quantity_unit"`
	} `json:"items_data"`
	Invoices []struct {
		Currency util.LooseString `json:"currency"`
	} `json:"invoice_datas"`
	Payments []struct {
		Deposit util.LooseString `json:"deposit"`
	} `json:"payment_datas"`
}

func (r graphQLResponse) snapshot() (*cdm.DeclarationSnapshot, string) {
	switch {
	case r.Data == nil:
		return nil, "no data"
	case len(r.Data.VersionedList) == 0:
		return nil, "no versions"
	case r.Data.VersionedList[0].VersionedData == nil:
		return nil, "no versioned data"
	case len(r.Data.VersionedList[0].VersionedData.Items) == 0:
		return nil, "no items"
	}

	data := r.Data.VersionedList[0].VersionedData
	item := data.Items[0]
	snapshot := &cdm.DeclarationSnapshot{
		HSCode:           item.HSCode.String(),
		GoodsValue:       item.GoodsValue.String(),
		GoodsDescription: item.GoodsDescription.String(),
		DutyFee:          item.DutyFee.String(),
		Quantity:         item.Quantity.String(),
	}
	if len(data.Invoices) > 0 {
		snapshot.Currency = data.Invoices[0].Currency.String()
	}
	if len(data.Payments) > 0 {
		snapshot.Deposit = data.Payments[0].Deposit.String()
	}
	return snapshot, ""
}
