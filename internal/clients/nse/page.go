package nse

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/aristath/petracker/internal/domain"
	"golang.org/x/net/html"
)

// labelWindow is how many text nodes after the label are searched for the value
const labelWindow = 6

// extractPagePE finds the security's own "P/E" label in the quote page and
// reads the first numeric text that follows it in document order. Sector
// P/E labels are skipped, and the value search stops at the next label.
func extractPagePE(body []byte) domain.FetchOutcome {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return domain.Unavailable(domain.ReasonMalformed, err.Error())
	}

	texts := collectText(doc)
	labelled := false
	for i, text := range texts {
		rest, ok := cutLabel(text)
		if !ok {
			continue
		}
		labelled = true
		if rest != "" {
			if v, ok := parseNumber(rest); ok {
				return domain.Available(v)
			}
		}
		for j := i + 1; j < len(texts) && j <= i+labelWindow; j++ {
			if isLabel(texts[j]) {
				break
			}
			if v, ok := parseNumber(texts[j]); ok {
				return domain.Available(v)
			}
		}
	}

	if labelled {
		return domain.Unavailable(domain.ReasonMissing, "P/E label without a numeric value")
	}
	return domain.Unavailable(domain.ReasonMissing, "no P/E label on page")
}

// collectText returns the non-empty text nodes in document order, skipping
// script and style contents
func collectText(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				out = append(out, t)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return out
}

// cutLabel reports whether text is the security's P/E label ("P/E",
// "Symbol P/E", "P/E Ratio:") and returns whatever follows the label in the
// same node. Sector P/E labels are rejected.
func cutLabel(text string) (string, bool) {
	if len(text) > 40 {
		return "", false
	}
	upper := strings.ToUpper(text)
	idx := strings.Index(upper, "P/E")
	if idx < 0 || strings.Contains(upper, "SECTOR") {
		return "", false
	}
	// upper can differ from text in byte length, so slice upper
	rest := strings.TrimSpace(upper[idx+len("P/E"):])
	rest = strings.TrimPrefix(rest, "RATIO")
	rest = strings.TrimSpace(strings.TrimLeft(rest, ":"))
	return rest, true
}

// isLabel reports whether text is any P/E label, sector ones included
func isLabel(text string) bool {
	return len(text) <= 40 && strings.Contains(strings.ToUpper(text), "P/E")
}

func parseNumber(text string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
