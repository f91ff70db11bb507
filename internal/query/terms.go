// Package query maps common natural-language phrases in search queries to
// their MeSH controlled-vocabulary equivalents. The mapping is a static
// dictionary lookup; anything it does not recognize passes through
// unchanged.
package query

import (
	"regexp"
	"strings"
)

// meshTerms maps lowercase lay phrases to MeSH headings. Longer phrases
// are substituted before their substrings.
var meshTerms = map[string]string{
	"heart attack":        "Myocardial Infarction",
	"high blood pressure": "Hypertension",
	"stroke":              "Stroke",
	"cancer":              "Neoplasms",
	"breast cancer":       "Breast Neoplasms",
	"lung cancer":         "Lung Neoplasms",
	"diabetes":            "Diabetes Mellitus",
	"flu":                 "Influenza, Human",
	"kidney failure":      "Renal Insufficiency",
	"heart failure":       "Heart Failure",
	"alzheimer's":         "Alzheimer Disease",
	"alzheimers":          "Alzheimer Disease",
	"gene editing":        "Gene Editing",
	"obesity":             "Obesity",
	"depression":          "Depressive Disorder",
}

// phrases holds the dictionary keys sorted longest-first so multi-word
// phrases win over their substrings.
var phrases = func() []string {
	keys := make([]string, 0, len(meshTerms))
	for k := range meshTerms {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && len(keys[j]) > len(keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}()

// Rewrite substitutes known phrases in q with their MeSH headings,
// case-insensitively, tagging each substitution with the [MeSH Terms]
// field qualifier. Unrecognized text is left untouched.
func Rewrite(q string) string {
	out := q
	for _, phrase := range phrases {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
		if err != nil {
			continue
		}
		out = re.ReplaceAllString(out, `"`+meshTerms[phrase]+`"[MeSH Terms]`)
	}
	return out
}

// Known reports whether the dictionary has an entry for the exact phrase.
func Known(phrase string) bool {
	_, ok := meshTerms[strings.ToLower(strings.TrimSpace(phrase))]
	return ok
}
