package domain

import "strings"

var markdownEscaper = strings.NewReplacer(
	`_`, `\_`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`(`, `\(`,
	`)`, `\)`,
	`~`, `\~`,
	"`", "\\`",
	`>`, `\>`,
	`#`, `\#`,
	`+`, `\+`,
	`-`, `\-`,
	`=`, `\=`,
	`|`, `\|`,
	`{`, `\{`,
	`}`, `\}`,
	`.`, `\.`,
	`!`, `\!`,
)

// EscapeMarkdown backslash-escapes Telegram markup characters.
// Escaping an already escaped string escapes it again.
func EscapeMarkdown(text string) string {
	if text == "" {
		return ""
	}
	return markdownEscaper.Replace(text)
}
