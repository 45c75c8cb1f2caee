package freechannel

import "strings"

// Intent is a recognized create request typed into a hub.
type Intent struct {
	Kind Kind
	Name string
}

var intentKinds = []Kind{Text, Voice}

// ParseIntent classifies hub message content as "text <name>" or "voice <name>".
// Matching is case-sensitive and requires a space after the keyword.
func ParseIntent(content string) (Intent, bool) {
	for _, kind := range intentKinds {
		prefix := kind.String() + " "
		if !strings.HasPrefix(content, prefix) {
			continue
		}
		name := strings.TrimSpace(content[len(prefix):])
		if name == "" {
			return Intent{}, false
		}
		return Intent{Kind: kind, Name: name}, true
	}
	return Intent{}, false
}

// LooksLikeIntent reports whether content starts with a create keyword.
func LooksLikeIntent(content string) bool {
	for _, kind := range intentKinds {
		if strings.HasPrefix(content, kind.String()) {
			return true
		}
	}
	return false
}
