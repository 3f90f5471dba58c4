// Command healthcheck is the container HEALTHCHECK command. It finds the
// server through the same configuration sources as passvault itself and
// exits 0 only when /api/v1/health reports "ok".
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/ericfisherdev/passvault/internal/config"
)

const checkTimeout = 2 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	flags := pflag.NewFlagSet("healthcheck", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.String("config", "", "passvault config file")
	flags.String("listen-addr", "", "server address (overrides config)")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	addr, err := config.ListenAddr(flags)
	if err != nil {
		fmt.Fprintln(stderr, "healthcheck:", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	if err := checkHealth(ctx, normalizeAddr(addr)); err != nil {
		fmt.Fprintln(stderr, "healthcheck:", err)
		return 1
	}
	return 0
}

// checkHealth requires a 200 with {"status":"ok"} from the health endpoint.
func checkHealth(ctx context.Context, addr string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s/api/v1/health", addr), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := (&http.Client{Timeout: checkTimeout}).Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if body.Status != "ok" {
		return errors.New("service reports status " + body.Status)
	}
	return nil
}

// normalizeAddr points the check at loopback when the service binds every
// interface, since the check runs inside the same container.
func normalizeAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
