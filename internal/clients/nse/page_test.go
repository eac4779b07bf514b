package nse

import (
	"testing"

	"github.com/aristath/petracker/internal/domain"
	testingpkg "github.com/aristath/petracker/internal/testing"
	"github.com/stretchr/testify/assert"
)

func TestExtractPagePE(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		value  float64
		reason domain.UnavailableReason
	}{
		{name: "table row", body: testingpkg.QuotePageHTML("24.10"), value: 24.10},
		{name: "thousands", body: testingpkg.QuotePageHTML("1,204.75"), value: 1204.75},
		{name: "same node", body: `<p><span>P/E: 17.3</span></p>`, value: 17.3},
		{name: "symbol label", body: `<dl><dt>Symbol P/E</dt><dd> 22.4 </dd></dl>`, value: 22.4},
		{name: "label ratio", body: `<div><b>P/E Ratio</b><i>n/a</i><i>15</i></div>`, value: 15},
		{name: "script ignored", body: `<script>var x = "P/E";</script><p>nothing</p>`, reason: domain.ReasonMissing},
		{name: "no label", body: `<p>Face Value</p><p>10</p>`, reason: domain.ReasonMissing},
		{name: "label without value", body: `<p>P/E</p><p>-</p>`, reason: domain.ReasonMissing},
		{name: "sector row first", body: `<table><tr><td>Sector P/E</td><td>31.40</td></tr><tr><td>Symbol P/E</td><td>22.10</td></tr></table>`, value: 22.10},
		{name: "sector inline first", body: `<p>Sector P/E: 31.4</p><p>P/E: 19.8</p>`, value: 19.8},
		{name: "only sector label", body: `<table><tr><td>Sector P/E</td><td>31.40</td></tr></table>`, reason: domain.ReasonMissing},
		{name: "value search stops at sector label", body: `<table><tr><td>Symbol P/E</td><td>-</td></tr><tr><td>Sector P/E</td><td>31.40</td></tr></table>`, reason: domain.ReasonMissing},
		{name: "non-ascii prefix", body: `<p>ıı P/E 18.5</p>`, value: 18.5},
		{name: "zero", body: testingpkg.QuotePageHTML("0.00"), reason: domain.ReasonNonPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := extractPagePE([]byte(tt.body))
			assert.Equal(t, tt.reason, out.Reason(), out.String())
			assert.InDelta(t, tt.value, out.Value(), 1e-9)
		})
	}
}
