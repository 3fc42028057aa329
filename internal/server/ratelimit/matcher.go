package ratelimit

import (
	"net/http"
	"strings"
)

// unlimited lists GET paths that are never rate limited.
var unlimited = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// unlimitedRule is returned for paths in unlimited.
var unlimitedRule = EndpointConfig{Limit: 0}

// MatchEndpoint picks the rule for a request. An exact path wins; otherwise
// the longest rule path ending in "/" that prefixes path wins. A rule with an
// empty Method matches any method. Returns nil when nothing matches.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if method == http.MethodGet && unlimited[path] {
		rule := unlimitedRule
		return &rule
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != "" && c.Method != method {
			continue
		}
		if c.Path == path {
			return c
		}
		isPrefix := strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path)
		if isPrefix && (best == nil || len(c.Path) > len(best.Path)) {
			best = c
		}
	}
	return best
}
