package registry

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/zerr"
)

// maxRecordSize bounds the body read for one record.
const maxRecordSize = 4 << 20

// HTTP serves records from <base>/<id>.json.
type HTTP struct {
	base       string
	httpClient *http.Client
}

// NewHTTP creates an HTTP registry rooted at base.
func NewHTTP(base string, timeout time.Duration) *HTTP {
	return NewHTTPWithClient(base, &http.Client{Timeout: timeout})
}

// NewHTTPWithClient creates an HTTP registry using a custom client.
func NewHTTPWithClient(base string, client *http.Client) *HTTP {
	return &HTTP{
		base:       strings.TrimRight(base, "/"),
		httpClient: client,
	}
}

// Fetch requests and decodes the record for id.
func (h *HTTP) Fetch(ctx context.Context, id string) (*domain.ComponentRecord, error) {
	if !validID(id) {
		return nil, notFound(id)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.base+"/"+url.PathEscape(id)+".json", http.NoBody)
	if err != nil {
		return nil, transportFailure(id, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, transportFailure(id, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, notFound(id)
	}
	if resp.StatusCode != http.StatusOK {
		statusErr := zerr.With(zerr.New("unexpected status "+strconv.Itoa(resp.StatusCode)), "status_code", resp.StatusCode)
		return nil, transportFailure(id, statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRecordSize))
	if err != nil {
		return nil, transportFailure(id, err)
	}

	return DecodeRecord(id, body)
}
