package tts

import (
	"regexp"
	"strings"
)

// VoicePolicy narrows the fallback tiers of PickVoice.
type VoicePolicy struct {
	LangPrefix string   // Case-insensitive language prefix, e.g. "it"
	NameHints  []string // Whole words expected in preferred voice names
}

// PickVoice chooses a voice from catalog. It tries, in order: the first name
// in preferred that the catalog contains exactly; a voice in the policy's
// language whose name contains one of the hints as a whole word; any voice in
// the policy's language; the first voice in the catalog. It reports false
// only for an empty catalog.
func PickVoice(catalog []Voice, preferred []string, policy VoicePolicy) (Voice, bool) {
	if len(catalog) == 0 {
		return Voice{}, false
	}

	for _, name := range preferred {
		for _, v := range catalog {
			if v.Name == name {
				return v, true
			}
		}
	}

	prefix := strings.ToLower(policy.LangPrefix)
	inLang := func(v Voice) bool {
		return strings.HasPrefix(strings.ToLower(v.Lang), prefix)
	}

	if hints := hintPattern(policy.NameHints); hints != nil {
		for _, v := range catalog {
			if inLang(v) && hints.MatchString(v.Name) {
				return v, true
			}
		}
	}

	for _, v := range catalog {
		if inLang(v) {
			return v, true
		}
	}

	return catalog[0], true
}

// hintPattern builds a case-insensitive whole-word pattern matching any hint.
func hintPattern(hints []string) *regexp.Regexp {
	quoted := make([]string, 0, len(hints))
	for _, h := range hints {
		if h = strings.TrimSpace(h); h != "" {
			quoted = append(quoted, regexp.QuoteMeta(h))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
