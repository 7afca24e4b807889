package util

import "strings"

const (
	// SeeMorePadding is how many zero-width spaces push the body past
	// KakaoTalk's fold.
	SeeMorePadding = 500
	ZeroWidthSpace = "\u200b"
)

var headerBreaks = []string{"\r\n\r\n", "\n\n", "\r\n", "\n", ""}

// Fold keeps lead visible and hides body behind KakaoTalk's "See more".
// Blank bodies are returned unchanged.
func Fold(body, lead string) string {
	if strings.TrimSpace(body) == "" {
		return body
	}
	lead = strings.TrimSpace(lead)

	var sb strings.Builder
	sb.Grow(len(lead) + len(ZeroWidthSpace)*SeeMorePadding + len(body) + 1)
	sb.WriteString(lead)
	sb.WriteString(strings.Repeat(ZeroWidthSpace, SeeMorePadding))
	if body[0] != '\n' {
		sb.WriteByte('\n')
	}
	sb.WriteString(body)
	return sb.String()
}

// CutHeader removes header and the line break after it from the start of text.
func CutHeader(text, header string) string {
	if strings.TrimSpace(header) == "" {
		return text
	}
	for _, br := range headerBreaks {
		if rest, ok := strings.CutPrefix(text, header+br); ok {
			return rest
		}
	}
	return text
}

// FoldUnderHeader moves text's own header line above the fold. When header is
// blank, fallback is shown instead.
func FoldUnderHeader(text, header, fallback string) string {
	lead := strings.TrimSpace(header)
	if lead == "" {
		lead = fallback
	}
	return Fold(CutHeader(text, header), lead)
}
