// Package cddis provides a client for the NASA CDDIS https archive.
//
// The archive serves the IGS product tree below /gnss/products/, one
// directory per GPS week, plus daily broadcast ephemeris merges below
// /gnss/data/daily/. Listings are HTML pages, files are plain GETs.
//
// Credentials are attached to a request only when its URL lies below the
// configured archive address. Everything else (IGS metadata servers, the
// Geoscience Australia API) is queried anonymously with the same client.
package cddis

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/SamGreenwood04/Ginan-UI/pkg/gpstime"
	"github.com/SamGreenwood04/Ginan-UI/pkg/products"
)

// DefaultURL is the CDDIS https archive root.
const DefaultURL = "https://cddis.nasa.gov/archive"

// Options provides additional information for connecting to the archive.
type Options struct {
	// Username is the Earthdata login name.
	Username string

	// Password is the Earthdata password.
	Password string

	// UserAgent is the http User Agent, defaults to "prodgo".
	UserAgent string

	// Timeout for listing and API requests in seconds. Defaults to 30 seconds.
	// File downloads run without a deadline, they are bounded by their context.
	Timeout int

	// Retries is the number of transparent retries for listing and API
	// requests. Defaults to 3.
	Retries int
}

// Client is an archive client for http connections.
// The http.Client's Transport typically has internal state (cached TCP connections),
// so Clients should be reused instead of created as needed. Clients are safe for
// concurrent use by multiple goroutines.
type Client struct {
	*http.Client // download transport, no transparent retrying
	URL          *url.URL
	Username     string
	Password     string
	Useragent    string

	listing *http.Client // retrying transport for listings and API queries
}

// NewClient returns a new archive Client with the given address and additional
// options. The address should have the form "https://host/archive". It uses
// HTTP proxies as directed by the $HTTP_PROXY and $NO_PROXY (or $http_proxy
// and $no_proxy) environment variables.
func NewClient(addr string, opts Options) (*Client, error) {
	archiveURL, err := url.Parse(strings.TrimRight(addr, "/"))
	if err != nil {
		return nil, err
	}
	if archiveURL.Scheme != "http" && archiveURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported protocol scheme: %s: your address must start with http:// or https://", archiveURL.Scheme)
	}

	if opts.UserAgent == "" {
		opts.UserAgent = "prodgo"
	}

	var timeout time.Duration = 30 * time.Second // default
	if opts.Timeout != 0 {
		timeout = time.Duration(opts.Timeout) * time.Second
	}

	retries := 3
	if opts.Retries != 0 {
		retries = opts.Retries
	}

	// the archive keeps its session in cookies after the first authorized request
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retries
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.HTTPClient.Timeout = timeout
	retryClient.HTTPClient.Jar = jar

	return &Client{
		Client: &http.Client{
			Jar: jar,
		},
		URL:       archiveURL,
		Username:  opts.Username,
		Password:  opts.Password,
		Useragent: opts.UserAgent,
		listing:   retryClient.StandardClient(),
	}, nil
}

// prepare sets the common request headers. Credentials go out only for
// requests below the archive address.
func (c *Client) prepare(req *http.Request) {
	req.Header.Set("User-Agent", c.Useragent)
	if c.Username != "" && strings.HasPrefix(req.URL.String(), c.URL.String()) {
		req.SetBasicAuth(c.Username, c.Password)
	}
}

// Do sends the request with the clients headers and scoped credentials.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.prepare(req)
	return c.Client.Do(req)
}

// WeekURL returns the product directory URL for a GPS week.
func (c *Client) WeekURL(week int) string {
	return fmt.Sprintf("%s/gnss/products/%d/", c.URL.String(), week)
}

// ProductURL returns the download URL for a product record.
func (c *Client) ProductURL(r products.Record) (string, error) {
	name, err := r.DownloadFilename()
	if err != nil {
		return "", err
	}
	return c.WeekURL(gpstime.Week(r.Date)) + name, nil
}

// BroadcastURLs returns the URLs of the daily merged broadcast ephemeris
// files covering the given span, one per UTC day from the day before start
// through the day of end.
func (c *Client) BroadcastURLs(start, end time.Time) []string {
	start, end = start.UTC(), end.UTC()
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	var urls []string
	for !day.After(last) {
		urls = append(urls, fmt.Sprintf("%s/gnss/data/daily/%d/brdc/BRDC00IGS_R_%d%03d0000_01D_MN.rnx.gz",
			c.URL.String(), day.Year(), day.Year(), day.YearDay()))
		day = day.AddDate(0, 0, 1)
	}
	return urls
}

// Ping checks whether the archive answers requests with the configured
// credentials. This is done by asking for the product tree root.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL.String()+"/gnss/products/", nil)
	if err != nil {
		return err
	}
	c.prepare(req)

	resp, err := c.listing.Do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET failed: %d (%s)", resp.StatusCode, resp.Status)
	}
	return nil
}

// ListWeek downloads the listing of one weekly product directory and returns
// the file names found in it. Subdirectory entries are left out.
func (c *Client) ListWeek(ctx context.Context, week int) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.WeekURL(week), nil)
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

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not parse listing for week %d: %w", week, err)
	}

	var names []string
	doc.Find("div.archiveItemTextContainer").Each(func(i int, s *goquery.Selection) {
		if fields := strings.Fields(s.Text()); len(fields) > 0 {
			names = append(names, fields[0])
		}
	})

	// plain index pages carry the names as anchors
	if len(names) == 0 {
		doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			if href == "" || strings.HasPrefix(href, "?") || strings.HasPrefix(href, "#") {
				return
			}
			name := href[strings.LastIndex(href, "/")+1:]
			if name != "" && !strings.Contains(name, "=") {
				names = append(names, name)
			}
		})
	}

	out := names[:0]
	for _, name := range names {
		if !strings.HasSuffix(name, "/") && name != ".." {
			out = append(out, name)
		}
	}
	return out, nil
}
