// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entrez talks to the NCBI E-utilities: ESearch turns a query into
// PubMed identifiers and EFetch returns those identifiers as MEDLINE records.
package entrez

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/pdiddy/rct-harvester/internal/httputil"
	"github.com/pdiddy/rct-harvester/internal/medline"
	"github.com/pdiddy/rct-harvester/pkg/types"
)

// DefaultBaseURL is the E-utilities root.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// DefaultTool is sent as the tool parameter when none is configured.
const DefaultTool = "rct-harvester"

// DefaultMaxResults caps identifiers per search.
const DefaultMaxResults = 10000

const database = "pubmed"

// Client queries PubMed through E-utilities.
type Client struct {
	HTTP httputil.Doer
	Cfg  types.EntrezConfig
}

// New returns a Client. Requests go through client, which callers usually
// wrap in an httputil.Throttle.
func New(client httputil.Doer, cfg types.EntrezConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Tool == "" {
		cfg.Tool = DefaultTool
	}
	return &Client{HTTP: client, Cfg: cfg}
}

// Search runs an ESearch query and returns up to maxResults PMIDs in the
// order PubMed ranks them. A maxResults of zero or less uses the configured
// cap.
func (c *Client) Search(ctx context.Context, term string, maxResults int) ([]string, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("empty search term")
	}
	if maxResults <= 0 {
		maxResults = c.Cfg.MaxResults
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	params := c.baseParams()
	params.Set("term", term)
	params.Set("retmax", strconv.Itoa(maxResults))
	params.Set("retmode", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("esearch.fcgi")+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ESearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ESearch returned HTTP %d: %s", resp.StatusCode, snippet(resp.Body))
	}

	var esr eSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&esr); err != nil {
		return nil, fmt.Errorf("parsing ESearch response: %w", err)
	}
	if esr.Result.Error != "" {
		return nil, fmt.Errorf("ESearch error: %s", esr.Result.Error)
	}
	if esr.Error != "" {
		return nil, fmt.Errorf("ESearch error: %s", esr.Error)
	}
	return esr.Result.IDList, nil
}

// Fetch retrieves MEDLINE records for pmids. The identifiers are posted as a
// form body so long lists do not overflow the URL.
func (c *Client) Fetch(ctx context.Context, pmids []string) ([]*medline.Record, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	form := c.baseParams()
	form.Set("id", strings.Join(pmids, ","))
	form.Set("rettype", "medline")
	form.Set("retmode", "text")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("efetch.fcgi"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setHeaders(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("EFetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("EFetch returned HTTP %d: %s", resp.StatusCode, snippet(resp.Body))
	}

	records, err := medline.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing EFetch response: %w", err)
	}
	return records, nil
}

func (c *Client) baseParams() url.Values {
	params := url.Values{"db": {database}}
	if c.Cfg.Tool != "" {
		params.Set("tool", c.Cfg.Tool)
	}
	if c.Cfg.Email != "" {
		params.Set("email", c.Cfg.Email)
	}
	if c.Cfg.APIKey != "" {
		params.Set("api_key", c.Cfg.APIKey)
	}
	return params
}

func (c *Client) endpoint(name string) string {
	return strings.TrimRight(c.Cfg.BaseURL, "/") + "/" + name
}

func (c *Client) setHeaders(req *http.Request) {
	if c.Cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.Cfg.UserAgent)
	}
}

// snippet returns the start of an error body for diagnostics.
func snippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}

// ESearch JSON structures.
type eSearchResponse struct {
	Result eSearchResult `json:"esearchresult"`
	Error  string        `json:"error"`
}

type eSearchResult struct {
	Count  string   `json:"count"`
	RetMax string   `json:"retmax"`
	IDList []string `json:"idlist"`
	Error  string   `json:"ERROR"`
}
