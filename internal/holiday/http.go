package holiday

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/twiced-technology-gmbh/backplan/internal/calendar"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxResponseBytes   = 1 << 20
)

// HTTP fetches holidays from a reference data service.
// GET {base}/holidays/{code} answers {"name": "...", "holidays": ["YYYY-MM-DD", ...]}.
type HTTP struct {
	base   string
	client *http.Client
	logger *zap.Logger
}

// NewHTTP returns a provider for the service at base. A nil client gets a
// default one with a timeout.
func NewHTTP(base string, client *http.Client, logger *zap.Logger) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTP{base: strings.TrimRight(base, "/"), client: client, logger: logger}
}

// Holidays implements Provider. A 404 for a code means the service has no
// data for it.
func (p *HTTP) Holidays(ctx context.Context, codes []string) (calendar.Holidays, error) {
	out := calendar.Holidays{}
	for _, code := range codes {
		dates, err := p.fetch(ctx, code)
		if err != nil {
			return nil, err
		}
		for _, d := range dates {
			out.Add(code, d)
		}
	}
	return out, nil
}

func (p *HTTP) fetch(ctx context.Context, code string) ([]date.Date, error) {
	endpoint := p.base + "/holidays/" + url.PathEscape(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building holiday request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching holidays for %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		p.logger.Debug("no holiday data", zap.String("country", code))
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching holidays for %s: unexpected status %s", code, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading holidays for %s: %w", code, err)
	}
	dates, err := parsePayload(body)
	if err != nil {
		return nil, fmt.Errorf("holidays for %s: %w", code, err)
	}
	p.logger.Debug("fetched holidays", zap.String("country", code), zap.Int("count", len(dates)))
	return dates, nil
}

// parsePayload extracts the holiday list from a service response.
func parsePayload(body []byte) ([]date.Date, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid JSON payload")
	}
	list := gjson.GetBytes(body, "holidays")
	if !list.IsArray() {
		return nil, errors.New("payload has no holidays array")
	}
	var dates []date.Date
	for _, item := range list.Array() {
		d, err := date.Parse(item.String())
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}
