package cddis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultRinexAPI is the Geoscience Australia observation file search endpoint.
const DefaultRinexAPI = "https://data.gnss.ga.gov.au/api/rinexFiles"

// RinexQuery holds the parameters for an observation file search.
type RinexQuery struct {
	// API is the search endpoint, defaults to DefaultRinexAPI.
	API string

	// Site is the four or nine character station identifier.
	Site string

	Start time.Time
	End   time.Time

	// Period is the file period, defaults to "01D".
	Period string

	// Version is the RINEX major version, defaults to "3".
	Version string
}

// RinexFile is one entry of a search result.
type RinexFile struct {
	SiteID   string
	Location string // download URL
	Start    time.Time
	Size     int64
}

// QueryRinexFiles asks the Geoscience Australia GNSS data API for observation
// files matching the query. The API lies outside the archive, so the request
// goes out without credentials.
func (c *Client) QueryRinexFiles(ctx context.Context, q RinexQuery) ([]RinexFile, error) {
	api := q.API
	if api == "" {
		api = DefaultRinexAPI
	}
	period := q.Period
	if period == "" {
		period = "01D"
	}
	version := q.Version
	if version == "" {
		version = "3"
	}

	params := url.Values{}
	params.Set("metadataStatus", "valid")
	params.Set("stationId", q.Site)
	params.Set("fileType", "obs")
	params.Set("rinexVersion", version)
	params.Set("filePeriod", period)
	params.Set("decompress", "true")
	params.Set("startDate", q.Start.UTC().Format(time.RFC3339))
	params.Set("endDate", q.End.UTC().Format(time.RFC3339))
	params.Set("tenantId", "default")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.prepare(req)

	resp, err := c.listing.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET failed: %d (%s)", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid json answer from %s", api)
	}

	var files []RinexFile
	for _, res := range gjson.ParseBytes(body).Array() {
		f := RinexFile{
			SiteID:   res.Get("siteId").String(),
			Location: res.Get("fileLocation").String(),
			Size:     res.Get("fileSize").Int(),
		}
		if ts := res.Get("startDate").String(); ts != "" {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				f.Start = t
			}
		}
		if f.Location != "" {
			files = append(files, f)
		}
	}
	return files, nil
}
