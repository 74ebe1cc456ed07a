package source

import (
	"strings"

	"golang.org/x/net/html"
)

// CleanTitle strips inline markup (<i>, <sup>, ...) and decodes entities in a publication
// title. Plain titles are returned unchanged apart from whitespace collapsing.
func CleanTitle(title string) string {
	if !strings.ContainsAny(title, "<&") {
		return collapseSpace(title)
	}

	var sb strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(title))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return collapseSpace(sb.String())
		case html.TextToken:
			sb.Write(tokenizer.Text())
		}
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
