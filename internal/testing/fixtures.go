package testing

import (
	"fmt"
	"strings"

	"github.com/aristath/petracker/internal/domain"
)

// NewSecurityFixtures returns a small universe for use in tests
func NewSecurityFixtures() []domain.SecurityInfo {
	return []domain.SecurityInfo{
		{Symbol: "RELIANCE", Name: "Reliance Industries Ltd", Sector: "Oil Gas & Consumable Fuels"},
		{Symbol: "TCS", Name: "Tata Consultancy Services Ltd", Sector: "Information Technology"},
		{Symbol: "HDFCBANK", Name: "HDFC Bank Ltd", Sector: "Financial Services"},
		{Symbol: "M&M", Name: "Mahindra & Mahindra Ltd", Sector: "Automobile and Auto Components"},
	}
}

// StaticUniverse is an in-memory domain.Universe
type StaticUniverse struct {
	infos []domain.SecurityInfo
}

// NewStaticUniverse builds a universe from infos, keeping their order
func NewStaticUniverse(infos ...domain.SecurityInfo) *StaticUniverse {
	return &StaticUniverse{infos: infos}
}

// Symbols returns the configured symbols in order
func (u *StaticUniverse) Symbols() []string {
	out := make([]string, 0, len(u.infos))
	for _, info := range u.infos {
		out = append(out, info.Symbol)
	}
	return out
}

// Lookup returns the info for symbol
func (u *StaticUniverse) Lookup(symbol string) (domain.SecurityInfo, bool) {
	for _, info := range u.infos {
		if info.Symbol == symbol {
			return info, true
		}
	}
	return domain.SecurityInfo{}, false
}

// BatchResult is one entry of a batch service response fixture
type BatchResult struct {
	Symbol  string
	PE      *float64
	Success bool
}

// PE is a convenience for building BatchResult values
func PE(v float64) *float64 {
	return &v
}

// BatchResponseJSON renders a batch service success envelope
func BatchResponseJSON(results ...BatchResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		pe := "null"
		if r.PE != nil {
			pe = fmt.Sprintf("%g", *r.PE)
		}
		parts = append(parts, fmt.Sprintf(`{"symbol":%q,"pe_ratio":%s,"success":%t}`, r.Symbol, pe, r.Success))
	}
	return fmt.Sprintf(`{"success":true,"results":[%s]}`, strings.Join(parts, ","))
}

// QuoteEquityJSON renders a trimmed quote-equity payload carrying pe in priceInfo
func QuoteEquityJSON(symbol string, pe float64) string {
	return fmt.Sprintf(`{"info":{"symbol":%q},"metadata":{"symbol":%q,"series":"EQ"},"priceInfo":{"lastPrice":1520.4,"pe":%g}}`, symbol, symbol, pe)
}

// QuotePageHTML renders a minimal quote page with a P/E table row
func QuotePageHTML(pe string) string {
	return `<!DOCTYPE html><html><body>
<div class="quote-summary"><table>
<tr><td>Face Value</td><td>10</td></tr>
<tr><td>P/E</td><td>` + pe + `</td></tr>
</table></div>
</body></html>`
}
