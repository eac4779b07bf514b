package nse

import (
	"encoding/json"

	"github.com/PaesslerAG/jsonpath"
	"github.com/aristath/petracker/internal/domain"
)

// quotePEPaths are tried in order; the first usable value wins
var quotePEPaths = []string{
	"$.metadata.pdSymbolPe",
	"$.priceInfo.pe",
}

// extractQuotePE reads the P/E ratio from a quote-equity payload
func extractQuotePE(body []byte) domain.FetchOutcome {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return domain.Unavailable(domain.ReasonMalformed, err.Error())
	}
	if _, ok := doc.(map[string]any); !ok {
		return domain.Unavailable(domain.ReasonMalformed, "quote payload is not an object")
	}

	var first *domain.FetchOutcome
	for _, path := range quotePEPaths {
		val, err := jsonpath.Get(path, doc)
		if err != nil || val == nil {
			continue
		}
		// jsonpath may wrap a single match in a list
		if list, ok := val.([]any); ok {
			if len(list) == 0 {
				continue
			}
			val = list[0]
		}
		out := domain.ParseOutcome(val)
		if out.OK() {
			return out
		}
		if first == nil {
			first = &out
		}
	}

	if first != nil {
		return *first
	}
	return domain.Unavailable(domain.ReasonMissing, "no P/E in quote payload")
}
