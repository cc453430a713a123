package extract

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/courtwire/courtwire/internal/preprocess"
)

// BRef parses a basketball-reference page into one row set per <table id=...>.
// Column keys come from the data-stat attribute each cell carries, uppercased
// to match the rest of the row vocabulary. Comment-wrapped tables (the site
// ships several that way) are unwrapped first.
func BRef(payload []byte) (*Tables, error) {
	doc, err := html.Parse(bytes.NewReader(unwrapComments(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bref html: %w", err)
	}

	out := &Tables{Raw: payload, Sets: map[string][]preprocess.Row{}}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			if id := attr(n, "id"); id != "" {
				out.Sets[id] = tableRows(n)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if len(out.Sets) == 0 {
		return nil, fmt.Errorf("bref payload has no tables")
	}
	return out, nil
}

// unwrapComments strips the <!-- --> markers basketball-reference hides
// secondary tables behind, so the parser sees them as live markup.
func unwrapComments(payload []byte) []byte {
	payload = bytes.ReplaceAll(payload, []byte("<!--"), nil)
	return bytes.ReplaceAll(payload, []byte("-->"), nil)
}

func tableRows(table *html.Node) []preprocess.Row {
	var rows []preprocess.Row
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			if row := cellRow(n); len(row) > 0 {
				rows = append(rows, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			// Header rows under <thead> are column labels, not data.
			if c.Type == html.ElementNode && c.Data == "thead" {
				continue
			}
			walk(c)
		}
	}
	walk(table)
	return rows
}

func cellRow(tr *html.Node) preprocess.Row {
	row := preprocess.Row{}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		stat := attr(c, "data-stat")
		if stat == "" {
			continue
		}
		row[strings.ToUpper(stat)] = text(c)
		// Cells that carry a canonical id (players, games) expose it in
		// data-append-csv; keep it beside the display text.
		if id := attr(c, "data-append-csv"); id != "" {
			row[strings.ToUpper(stat)+"_ID"] = id
		}
	}
	return row
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
