// Package nodeclient talks to one qBittorrent-compatible backend: login,
// telemetry probe, magnet submit. Each Client owns exactly one node's
// session; nothing here is shared mutable state beyond the session cookie
// jar, which the standard library's cookiejar already serializes safely.
package nodeclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"encoding/json"

	"github.com/avast/retry-go/v4"
	"github.com/qdispatch/qdispatch/models"
	"golang.org/x/time/rate"
)

const (
	loginPath      = "/api/v2/auth/login"
	maindataPath   = "/api/v2/sync/maindata"
	transferPath   = "/api/v2/transfer/info"
	torrentsPath   = "/api/v2/torrents/info"
	addPath        = "/api/v2/torrents/add"
	bytesPerGiB    = 1 << 30
	bitsPerByte    = 8
	bitsPerMegabit = 1_000_000
)

var errAuthExpired = errors.New("session expired")

// Client is one node's session. Safe for concurrent Probe/Submit calls:
// the login flag and HTTP client's cookie jar are guarded by mu.
type Client struct {
	name     string
	baseURL  string
	username string
	password string

	httpClient *http.Client
	limiter    *rate.Limiter

	mu        sync.Mutex
	loggedIn  bool
}

// New builds a Client for one NodeDescriptor. The limiter paces outbound
// calls to the node at 5 requests/second with a small burst, independent of
// how many concurrent evaluations are in flight against it.
func New(desc models.NodeDescriptor) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("build cookie jar: %w", err)
	}
	return &Client{
		name:     desc.Name,
		baseURL:  strings.TrimRight(desc.BaseURL, "/"),
		username: desc.Username,
		password: desc.Password,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(5, 5),
	}, nil
}

// Name returns the node name this client was built for.
func (c *Client) Name() string { return c.name }

func (c *Client) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

func (c *Client) login(ctx context.Context) error {
	form := url.Values{"username": {c.username}, "password": {c.password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "Ok." {
		return fmt.Errorf("login rejected: status=%d body=%q", resp.StatusCode, string(body))
	}
	c.loggedIn = true
	return nil
}

// authed runs do, re-authenticating and replaying exactly once if the
// backend answers 401/403. Any other status or transport error propagates
// immediately without a second attempt.
func (c *Client) authed(ctx context.Context, do func(ctx context.Context) (*http.Response, error)) (*http.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var resp *http.Response
	err := retry.Do(
		func() error {
			if !c.loggedIn {
				if err := c.login(ctx); err != nil {
					return err
				}
			}
			r, err := do(ctx)
			if err != nil {
				return err
			}
			if r.StatusCode == http.StatusUnauthorized || r.StatusCode == http.StatusForbidden {
				r.Body.Close()
				c.loggedIn = false
				return errAuthExpired
			}
			resp = r
			return nil
		},
		retry.Attempts(2),
		retry.Delay(0),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return errors.Is(err, errAuthExpired) }),
	)
	return resp, err
}

type maindataResp struct {
	ServerState struct {
		FreeSpaceOnDisk *int64 `json:"free_space_on_disk"`
	} `json:"server_state"`
}

type transferInfoResp struct {
	DlInfoSpeed float64 `json:"dl_info_speed"`
}

type torrentEntry struct {
	Hash    string `json:"hash"`
	AddedOn int64  `json:"added_on"`
}

// Probe gathers free disk, global download rate, and active/paused torrent
// counts. Numeric fields whose source value is absent map to "unknown",
// never to zero.
func (c *Client) Probe(ctx context.Context) (models.NodeTelemetry, error) {
	var telemetry models.NodeTelemetry

	md, err := c.getJSON(ctx, maindataPath, &maindataResp{})
	if err != nil {
		return telemetry, &Unreachable{Detail: err.Error()}
	}
	mdResp := md.(*maindataResp)
	if mdResp.ServerState.FreeSpaceOnDisk != nil {
		telemetry.FreeDiskKnown = true
		telemetry.FreeDiskGB = float64(*mdResp.ServerState.FreeSpaceOnDisk) / bytesPerGiB
	}

	ti, err := c.getJSON(ctx, transferPath, &transferInfoResp{})
	if err != nil {
		return telemetry, &Unreachable{Detail: err.Error()}
	}
	telemetry.BandwidthMbps = ti.(*transferInfoResp).DlInfoSpeed * bitsPerByte / bitsPerMegabit

	downloading, err := c.listTorrents(ctx, "downloading")
	if err != nil {
		return telemetry, &Unreachable{Detail: err.Error()}
	}
	telemetry.ActiveDownloads = len(downloading)

	paused, err := c.listTorrents(ctx, "paused")
	if err != nil {
		return telemetry, &Unreachable{Detail: err.Error()}
	}
	telemetry.PausedDownloads = len(paused)

	return telemetry, nil
}

func (c *Client) listTorrents(ctx context.Context, filter string) ([]torrentEntry, error) {
	var list []torrentEntry
	resp, err := c.authed(ctx, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s%s?filter=%s", c.baseURL, torrentsPath, url.QueryEscape(filter)), nil)
		if err != nil {
			return nil, err
		}
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("torrents/info status=%d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode torrents/info: %w", err)
	}
	return list, nil
}

// getJSON issues an authenticated GET and decodes the JSON body into out,
// returning out on success.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) (interface{}, error) {
	resp, err := c.authed(ctx, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s status=%d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

// Submit posts the magnet for download and returns an opaque infohash on a
// best-effort basis (the newest torrent by add time), or "" if none could
// be determined. The returned hash is informational only.
func (c *Client) Submit(ctx context.Context, magnet, category, savePath string) (string, error) {
	form := url.Values{
		"urls":   {magnet},
		"paused": {"false"},
	}
	if category != "" {
		form.Set("category", category)
	}
	if savePath != "" {
		form.Set("savepath", savePath)
	}
	resp, err := c.authed(ctx, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+addPath, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		return c.httpClient.Do(req)
	})
	if err != nil {
		return "", &SubmitFailed{Detail: err.Error()}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "Ok." {
		return "", &SubmitFailed{Detail: fmt.Sprintf("status=%d body=%q", resp.StatusCode, string(body))}
	}
	return c.newestHash(ctx), nil
}

// newestHash best-effort identifies the torrent just added. A failure here
// is swallowed: the returned hash is informational only.
func (c *Client) newestHash(ctx context.Context) string {
	entries, err := c.listTorrents(ctx, "all")
	if err != nil || len(entries) == 0 {
		return ""
	}
	newest := entries[0]
	for _, e := range entries[1:] {
		if e.AddedOn > newest.AddedOn {
			newest = e
		}
	}
	return newest.Hash
}
