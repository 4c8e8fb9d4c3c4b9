// Package checkin periodically reports this host's addresses to a collector
package checkin

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/ramborogers/hostaddr/ifaces"
)

const (
	apiEndpoint    = "/api"
	healthEndpoint = "/health"
	authHeader     = "X-API-Token"
)

// Resolver produces the addresses to report
type Resolver interface {
	Resolve(ctx context.Context) ifaces.Result
}

// Report is the body posted on every check-in
type Report struct {
	SystemID  string        `json:"system_id"`
	Hostname  string        `json:"hostname"`
	Version   string        `json:"version"`
	Addresses []string      `json:"addresses"`
	Source    ifaces.Source `json:"source"`
	Fallback  bool          `json:"fallback"`
}

// Response is what the collector answers a report with
type Response struct {
	Accepted  int    `json:"accepted"`
	Timestamp string `json:"timestamp"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// Client reports to one collector
type Client struct {
	token     string
	version   string
	systemID  string
	hostname  string
	serverURL string
	interval  time.Duration
	resolver  Resolver
	stopChan  chan struct{}
	stopOnce  sync.Once
	waitGroup sync.WaitGroup
	client    *http.Client
}

// NewClient creates a check-in client. interval <= 0 means hourly.
func NewClient(serverURL, token, version string, interval time.Duration, resolver Resolver) (*Client, error) {
	if serverURL == "" {
		return nil, errors.New("collector URL is empty")
	}
	if resolver == nil {
		return nil, errors.New("resolver is nil")
	}
	if interval <= 0 {
		interval = time.Hour
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &Client{
		token:     token,
		version:   version,
		serverURL: strings.TrimSuffix(serverURL, "/"),
		systemID:  generateSystemID(hostname),
		hostname:  hostname,
		interval:  interval,
		resolver:  resolver,
		stopChan:  make(chan struct{}),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// SystemID is the anonymous identifier sent with every report
func (c *Client) SystemID() string {
	return c.systemID
}

// Start checks the collector is healthy, sends the first report and then
// keeps reporting every interval until Stop is called.
func (c *Client) Start(ctx context.Context) error {
	if err := c.checkHealth(ctx); err != nil {
		return errors.Wrap(err, "health check failed")
	}

	accepted, err := c.CheckIn(ctx)
	if err != nil {
		return errors.Wrap(err, "check-in failed")
	}
	if !accepted {
		return errors.Errorf("collector refused report from %s", c.hostname)
	}

	c.waitGroup.Add(1)
	go c.periodicCheckIn()

	return nil
}

// Stop halts periodic check-ins
func (c *Client) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.waitGroup.Wait()
}

func (c *Client) checkHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+healthEndpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("health check failed with status: %d", resp.StatusCode)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return errors.Wrap(err, "decoding health response")
	}
	if health.Status != "healthy" {
		return errors.Errorf("unhealthy service status: %s", health.Status)
	}
	return nil
}

// BuildReport resolves the current addresses into a Report
func (c *Client) BuildReport(ctx context.Context) Report {
	res := c.resolver.Resolve(ctx)
	return Report{
		SystemID:  c.systemID,
		Hostname:  c.hostname,
		Version:   c.version,
		Addresses: res.Addresses,
		Source:    res.Source,
		Fallback:  res.Fallback,
	}
}

// CheckIn posts one report and says whether the collector accepted it
func (c *Client) CheckIn(ctx context.Context) (bool, error) {
	jsonData, err := json.Marshal(c.BuildReport(ctx))
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+apiEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(authHeader, c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, errors.Errorf("check-in failed with status: %d", resp.StatusCode)
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, errors.Wrap(err, "decoding check-in response")
	}

	// The timestamp is informational only
	if _, err := time.Parse("2006-01-02T15:04:05.999999", result.Timestamp); err != nil {
		log.Printf("DEBUG: Could not parse timestamp %q: %v", result.Timestamp, err)
	}

	return result.Accepted == 1, nil
}

func (c *Client) periodicCheckIn() {
	defer c.waitGroup.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.client.Timeout)
			accepted, err := c.CheckIn(ctx)
			cancel()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Check-in error: %v\n", err)
			} else if !accepted {
				fmt.Fprintf(os.Stderr, "Collector refused report from %s\n", c.hostname)
			}
		case <-c.stopChan:
			return
		}
	}
}

// generateSystemID creates a stable anonymous identifier for this host
func generateSystemID(hostname string) string {
	exe, err := os.Executable()
	if err != nil {
		exe = "unknown"
	}

	h := sha256.New()
	io.WriteString(h, hostname)
	io.WriteString(h, exe)
	io.WriteString(h, runtime.GOOS)
	io.WriteString(h, runtime.GOARCH)

	return fmt.Sprintf("%x", h.Sum(nil))[:32]
}
