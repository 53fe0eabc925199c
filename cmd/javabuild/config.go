package main

import (
	"flag"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ochairo/javabuild/internal/external-adapters/console"
)

// config holds the application configuration.
type config struct {
	CacheDir    string        `env:"JAVABUILD_CACHE_DIR" envDefault:"tooling"`
	Catalog     string        `env:"JAVABUILD_CATALOG"`
	Verify      bool          `env:"JAVABUILD_VERIFY"`
	NoColor     bool          `env:"JAVABUILD_NO_COLOR"`
	HTTPTimeout time.Duration `env:"JAVABUILD_HTTP_TIMEOUT" envDefault:"1m"`
	Debug       bool          `env:"JAVABUILD_DEBUG"`
}

// parseConfig parses the application configuration from the environment variables.
func parseConfig(environ []string) (*config, error) {
	var cfg config

	err := env.ParseWithOptions(&cfg, env.Options{
		Environment: env.ToMap(environ),
	})
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// bindCommonFlags registers the flags shared by every command. Flag values
// override the environment.
func (c *config) bindCommonFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.CacheDir, "cache-dir", c.CacheDir, "Cache root for jdks/, mavens/ and logs/")
	fs.StringVar(&c.Catalog, "catalog", c.Catalog, "Catalog file replacing the built-in one")
	fs.BoolVar(&c.NoColor, "no-color", c.NoColor, "Disable colored output")
}

// httpClient returns the client used for downloads and verification data.
// HTTPTimeout bounds connecting, the TLS handshake and waiting for response
// headers; reading the body is unbounded so a slow download keeps going.
func (c *config) httpClient() *http.Client {
	if c.HTTPTimeout <= 0 {
		return &http.Client{}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   c.HTTPTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = c.HTTPTimeout
	transport.ResponseHeaderTimeout = c.HTTPTimeout

	return &http.Client{Transport: transport}
}

// output returns the session writer and the logger writing to it
func (c *config) output(w io.Writer) (io.Writer, *console.Logger) {
	color := !c.NoColor
	logger := console.NewLogger(w, console.WithColor(color), console.WithDebug(c.Debug))
	if color {
		w = console.NewWriter(w)
	}
	return w, logger
}
