package tokenize

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StripMarkup drops HTML tags and decodes entities, keeping only visible text.
// Text without '<' or '&' is returned unchanged. Only known HTML elements
// count as tags: "<urgent>" or an unclosed "water<food" stays as text.
func StripMarkup(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return text
	}

	z := html.NewTokenizer(strings.NewReader(text))
	var b strings.Builder
	consumed := 0
	skip := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// an unterminated tag at the end is ordinary text
			if consumed < len(text) {
				b.WriteString(text[consumed:])
			}
			return b.String()
		}
		// copy before TagName/Text, which rewrite the buffer in place
		raw := string(z.Raw())
		consumed += len(raw)

		switch tt {
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == 0 {
				if skip == 0 {
					b.WriteString(raw)
				}
				continue
			}
			if isHiddenTag(name) {
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
			}
			b.WriteByte(' ')
		}
	}
}

func isHiddenTag(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}
