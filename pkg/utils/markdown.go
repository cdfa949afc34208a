package utils

import (
	"strings"
)

// EscapeMarkdown escaped spezielle Markdown-Zeichen
func EscapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		".", "\\.",
		"!", "\\!",
		"|", "\\|",
	)
	return replacer.Replace(text)
}

// TruncateText kürzt Text auf maximale Länge (in Runes)
func TruncateText(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}

	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	return string(runes[:maxLength-3]) + "..."
}

// FormatTitleChain formatiert eine Projekt-Hierarchie als "Root › Child"
func FormatTitleChain(chain []string) string {
	if len(chain) == 0 {
		return ""
	}

	return strings.Join(chain, " › ")
}
