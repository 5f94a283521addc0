package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ModelLabel turns a model identifier such as "gemini-2.0-flash" into a
// display label ("Gemini 2.0 Flash").
func ModelLabel(model string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		return ""
	}
	model = strings.TrimPrefix(model, "models/")
	return cases.Title(language.English).String(strings.ReplaceAll(model, "-", " "))
}
