package reference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Lavan1999/agentic-ai/internal/cdm"
	"github.com/Lavan1999/agentic-ai/internal/util"
)

// ErrMissingEndpoint is returned when a reference API URL is not configured.
var ErrMissingEndpoint = errors.New("reference api url missing")

// HTTPConfig drives the reference API client.
type HTTPConfig struct {
	TariffURL      string
	TariffToken    string
	ValuationURL   string
	ValuationToken string
	Timeout        time.Duration
}

// HTTPSource reads reference records from the tariff and valuation APIs.
type HTTPSource struct {
	httpClient     *http.Client
	tariffURL      string
	tariffToken    string
	valuationURL   string
	valuationToken string
}

// NewHTTPSource constructs a client if both endpoints are configured.
func NewHTTPSource(cfg HTTPConfig) (*HTTPSource, error) {
	tariffURL := strings.TrimSpace(cfg.TariffURL)
	valuationURL := strings.TrimRight(strings.TrimSpace(cfg.ValuationURL), "/")
	if tariffURL == "" || valuationURL == "" {
		return nil, ErrMissingEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSource{
		httpClient:     &http.Client{Timeout: timeout},
		tariffURL:      tariffURL,
		tariffToken:    strings.TrimSpace(cfg.TariffToken),
		valuationURL:   valuationURL,
		valuationToken: strings.TrimSpace(cfg.ValuationToken),
	}, nil
}

// FetchTariff returns the first tariff search result for hsCode.
func (s *HTTPSource) FetchTariff(ctx context.Context, hsCode string) (*cdm.TariffReference, error) {
	params := url.Values{}
	params.Set("search_param", hsCode)
	endpoint := s.tariffURL
	if strings.Contains(endpoint, "?") {
		endpoint = endpoint + "&" + params.Encode()
	} else {
		endpoint = endpoint + "?" + params.Encode()
	}

	var payload tariffResponse
	if err := s.getJSON(ctx, endpoint, s.tariffToken, &payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, cdm.ErrNotFound
	}
	first := payload.Results[0]
	return &cdm.TariffReference{
		HSCode:         first.HSCode.String(),
		Description:    first.Description.String(),
		DutyPercentage: first.DutyFee.String(),
	}, nil
}

// FetchValuation returns the first product, and its first price, for hsCode.
func (s *HTTPSource) FetchValuation(ctx context.Context, hsCode string) (*cdm.ValuationReference, error) {
	endpoint := fmt.Sprintf("%s/api/products/hs-code/%s/", s.valuationURL, url.PathEscape(hsCode))

	var payload valuationResponse
	if err := s.getJSON(ctx, endpoint, s.valuationToken, &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 {
		return nil, cdm.ErrNotFound
	}
	product := payload.Data[0]
	ref := &cdm.ValuationReference{
		ProductID:           product.ProductID.String(),
		Description:         product.Description.String(),
		VariationPercentage: product.VariationPercentage.String(),
		UnitName:            product.UnitName.String(),
	}
	if len(product.Prices) > 0 {
		ref.Price = product.Prices[0].Price.String()
		ref.Currency = product.Prices[0].Currency.String()
	}
	return ref, nil
}

// getJSON treats any non-200 answer as a missing record, matching how the
// reference APIs report unknown codes.
func (s *HTTPSource) getJSON(ctx context.Context, endpoint, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.WithFields(logrus.Fields{
			"status":   resp.StatusCode,
			"endpoint": endpoint,
		}).Warn("reference api returned no record")
		return cdm.ErrNotFound
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode reference response: %w", err)
	}
	return nil
}

type tariffResponse struct {
	Results []struct {
		HSCode      util.LooseString `json:"hs_code"`
		Description util.LooseString `json:"description"`
		DutyFee     util.LooseString `json:"duty_fee"`
	} `json:"results"`
}

type valuationResponse struct {
	Data []struct {
		ProductID           util.LooseString `json:"product_id"`
		Description         util.LooseString `json:"description"`
		VariationPercentage util.LooseString `json:"variation_percentage"`
		UnitName            util.LooseString `json:"unit_name"`
		Prices              []struct {
			Price    util.LooseString `json:"price"`
			Currency util.LooseString `json:"currency"`
		} `json:"prices"`
	} `json:"data"`
}
