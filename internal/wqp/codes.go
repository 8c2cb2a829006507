package wqp

import (
	"context"
	"net/url"

	"github.com/rotisserie/eris"

	"github.com/OykuInAction/bluethumb-validation-OykuInAction/internal/fetcher"
)

// StateCode is one entry from the portal's statecode lookup service.
type StateCode struct {
	Value     string `json:"value"`
	Desc      string `json:"desc"`
	Providers string `json:"providers"`
}

type codesResponse struct {
	Codes       []StateCode `json:"codes"`
	RecordCount int         `json:"recordCount"`
}

// LookupStateCode queries the portal's Codes service for the given FIPS
// state code (e.g. "US:40") and returns the matching entry, or nil when
// the portal does not know the code. Used as an extract preflight so a
// typo fails before the heavy exports start.
func (c *Client) LookupStateCode(ctx context.Context, code string) (*StateCode, error) {
	v := url.Values{}
	v.Set("mimeType", "json")
	v.Set("text", code)

	body, err := c.fetcher.Download(ctx, c.baseURL+codesEndpoint+"?"+v.Encode())
	if err != nil {
		return nil, eris.Wrap(err, "wqp: fetch state codes")
	}
	defer body.Close() //nolint:errcheck

	resp, err := fetcher.DecodeJSONObject[codesResponse](body)
	if err != nil {
		return nil, eris.Wrap(err, "wqp: decode state codes")
	}

	for _, entry := range resp.Codes {
		if entry.Value == code {
			return &entry, nil
		}
	}
	return nil, nil
}
