package persona

import "strings"

// Route picks a persona for a question by keyword. The first keyword found
// in the lowercased question wins; a keyword mapped to a pair yields the
// second entry when the question mentions production. Questions matching
// no keyword go to the routing default.
func (e *Engine) Route(question string) string {
	q := strings.ToLower(question)
	routing := e.catalog.Routing()

	for _, r := range routing.Keywords {
		if !strings.Contains(q, r.Keyword) {
			continue
		}
		if len(r.Personas) > 1 {
			// "prod" also covers "production".
			if strings.Contains(q, "prod") {
				return r.Personas[len(r.Personas)-1]
			}
		}
		return r.Personas[0]
	}
	return routing.DefaultOrFallback()
}
