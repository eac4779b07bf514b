// Package universe provides the configured set of tracked securities.
package universe

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/aristath/petracker/internal/domain"
	"github.com/aristath/petracker/pkg/embedded"
	"gopkg.in/yaml.v3"
)

// Universe is an ordered, immutable list of securities with descriptive data
type Universe struct {
	name       string
	exchange   string
	securities []domain.SecurityInfo
	index      map[string]int
}

type document struct {
	Name       string  `yaml:"name"`
	Exchange   string  `yaml:"exchange"`
	Securities []entry `yaml:"securities"`
}

type entry struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
	Sector string `yaml:"sector"`
}

// Load reads a universe from path, or the embedded Nifty 50 list when path is empty
func Load(path string) (*Universe, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = fs.ReadFile(embedded.Files, embedded.DefaultUniverse)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read universe: %w", err)
	}

	u, err := Parse(data)
	if err != nil {
		source := path
		if source == "" {
			source = embedded.DefaultUniverse
		}
		return nil, fmt.Errorf("invalid universe %s: %w", source, err)
	}
	return u, nil
}

// Parse decodes a YAML universe document. Symbols are case-sensitive and must be unique.
func Parse(data []byte) (*Universe, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}

	if len(doc.Securities) == 0 {
		return nil, fmt.Errorf("no securities listed")
	}

	u := &Universe{
		name:       doc.Name,
		exchange:   doc.Exchange,
		securities: make([]domain.SecurityInfo, 0, len(doc.Securities)),
		index:      make(map[string]int, len(doc.Securities)),
	}
	for i, e := range doc.Securities {
		symbol := strings.TrimSpace(e.Symbol)
		if symbol == "" {
			return nil, fmt.Errorf("security #%d has no symbol", i+1)
		}
		if _, dup := u.index[symbol]; dup {
			return nil, fmt.Errorf("duplicate symbol %q", symbol)
		}
		u.index[symbol] = len(u.securities)
		u.securities = append(u.securities, domain.SecurityInfo{
			Symbol: symbol,
			Name:   strings.TrimSpace(e.Name),
			Sector: strings.TrimSpace(e.Sector),
		})
	}

	return u, nil
}

// Name returns the universe name (e.g. "nifty50")
func (u *Universe) Name() string { return u.name }

// Exchange returns the exchange MIC the symbols trade on
func (u *Universe) Exchange() string { return u.exchange }

// Len returns the number of securities
func (u *Universe) Len() int { return len(u.securities) }

// Symbols returns the symbols in configured order
func (u *Universe) Symbols() []string {
	out := make([]string, len(u.securities))
	for i, s := range u.securities {
		out[i] = s.Symbol
	}
	return out
}

// Lookup returns the descriptive data for symbol
func (u *Universe) Lookup(symbol string) (domain.SecurityInfo, bool) {
	i, ok := u.index[symbol]
	if !ok {
		return domain.SecurityInfo{}, false
	}
	return u.securities[i], true
}
