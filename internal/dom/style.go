package dom

import (
	"strings"

	"github.com/aymerick/douceur/parser"
)

type styleDecl struct {
	prop  string
	value string
}

// parseStyle reads an inline style attribute. Declarations the tokenizer
// cannot make sense of end the list, as a browser would drop them.
func parseStyle(css string) []styleDecl {
	css = strings.TrimSpace(css)
	if css == "" {
		return nil
	}
	// The last declaration only gets its value once a terminator is seen.
	if !strings.HasSuffix(css, ";") {
		css += ";"
	}
	parsed, _ := parser.NewParser(css).ParseDeclarations()

	var decls []styleDecl
	for _, d := range parsed {
		prop := strings.ToLower(d.Property)
		if prop == "" {
			continue
		}
		value := strings.Join(strings.Fields(d.Value), " ")
		if d.Important {
			value += " !important"
		}
		decls = setDecl(decls, prop, value)
	}
	return decls
}

func setDecl(decls []styleDecl, prop, value string) []styleDecl {
	for i := range decls {
		if decls[i].prop == prop {
			if value == "" {
				return append(decls[:i], decls[i+1:]...)
			}
			decls[i].value = value
			return decls
		}
	}
	if value == "" {
		return decls
	}
	return append(decls, styleDecl{prop: prop, value: value})
}

func formatStyle(decls []styleDecl) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.prop+": "+d.value)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "; ") + ";"
}
