// Package cmd implements the CLI application of the US macro dashboard.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/etnz/macro"
	"github.com/etnz/macro/bls"
	"github.com/etnz/macro/fred"
	"github.com/etnz/macro/remote"
	"github.com/etnz/macro/tradingeconomics"
	"gopkg.in/yaml.v3"
)

// Environment variables holding the API keys.
const (
	EnvFREDKey    = "FRED_API_KEY"
	EnvBLSKey     = "BLS_API_KEY"
	EnvTradingKey = "TRADING_ECON_API_KEY"
	EnvGeminiKey  = "GEMINI_API_KEY"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	fredKeyFlag    = flag.String("fred-api-key", "", "FRED API key. Takes precedence over the "+EnvFREDKey+" environment variable. Get one at https://fred.stlouisfed.org/docs/api/api_key.html")
	blsKeyFlag     = flag.String("bls-api-key", "", "BLS registration key. Takes precedence over the "+EnvBLSKey+" environment variable. Optional, it raises the daily quota.")
	tradingKeyFlag = flag.String("trading-econ-api-key", "", "Trading Economics API key. Takes precedence over the "+EnvTradingKey+" environment variable. Without it, the calendar uses the catalogue's schedule.")
	geminiKeyFlag  = flag.String("gemini-api-key", "", "Gemini API key, for briefings. Takes precedence over the "+EnvGeminiKey+" environment variable.")
	secretsFile    = flag.String("secrets", filepath.Join(".mdash", "secrets.yaml"), "YAML file of API keys by environment variable name, read when neither the flag nor the variable is set")
	configFile     = flag.String("config", "", "YAML catalogue of indicators and charts. Uses the built-in US catalogue by default.")
	cacheDir       = flag.String("cache-dir", defaultCacheDir(), "Folder of the daily HTTP response cache. Empty to disable caching.")
	cachePeriod    = cachePeriodFlag()
	Verbose        = flag.Bool("v", false, "print upstream diagnostics to stderr")
)

func cachePeriodFlag() *macro.Period {
	p := macro.Daily
	flag.Var(&p, "cache-period", "how long responses are cached: daily, weekly, monthly, quarterly or yearly. Entries expire at the end of the period.")
	return &p
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mdash")
}

var secrets map[string]string

// loadSecrets reads the secrets file once. A missing file is not an error.
func loadSecrets() (map[string]string, error) {
	if secrets != nil {
		return secrets, nil
	}
	secrets = make(map[string]string)
	content, err := os.ReadFile(*secretsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return secrets, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(content, &secrets); err != nil {
		return nil, fmt.Errorf("invalid secrets file %q: %w", *secretsFile, err)
	}
	return secrets, nil
}

// apiKey retrieves an API key from the command-line flag, the environment
// variable, or the secrets file, in that order.
func apiKey(flagValue, env string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	s, err := loadSecrets()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return ""
	}
	return s[env]
}

func remoteOptions() remote.Options {
	return remote.Options{CacheDir: *cacheDir, Period: *cachePeriod}
}

// Catalogue loads the app catalogue.
func Catalogue() (*macro.Catalogue, error) {
	return macro.LoadCatalogue(*configFile)
}

// Sources returns the series fetchers by source, and the calendar feed, or
// nil when no Trading Economics key is configured.
func Sources() (map[string]macro.SeriesFetcher, macro.EventFetcher) {
	opts := remoteOptions()
	sources := map[string]macro.SeriesFetcher{
		macro.SourceFRED: fred.New(apiKey(*fredKeyFlag, EnvFREDKey), opts),
		macro.SourceBLS:  bls.New(apiKey(*blsKeyFlag, EnvBLSKey), opts),
	}
	var events macro.EventFetcher
	if key := apiKey(*tradingKeyFlag, EnvTradingKey); key != "" {
		events = tradingeconomics.New(key, opts)
	}
	return sources, events
}

// reportErrors prints the degraded elements of a dashboard.
func reportErrors(err error) {
	if err == nil {
		return
	}
	for _, e := range unjoin(err) {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", e)
	}
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
