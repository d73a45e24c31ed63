package secrets

// DefaultRules returns the patterns most likely to leak through container
// logs: credentials in connection strings, auth headers, env dumps, and
// well-known token formats.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:      "private-key",
			Pattern: `-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP )?PRIVATE KEY(?:[- ]BLOCK)?-----`,
		},
		{
			ID:       "aws-access-key-id",
			Pattern:  `(?:A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|AIPA|ANPA|ANVA|ASIA)[A-Z0-9]{16}`,
			Keywords: []string{"akia", "asia", "aws"},
		},
		{
			ID:      "url-credentials",
			Pattern: `(?i)\b[a-z][a-z0-9+.-]*://[^\s:/@]+:[^\s@/]+@[^\s]+`,
		},
		{
			ID:       "bearer-token",
			Pattern:  `(?i)bearer\s+[A-Za-z0-9_\-\.=]{20,}`,
			Keywords: []string{"bearer"},
		},
		{
			ID:       "basic-auth-header",
			Pattern:  `(?i)authorization:\s*basic\s+[A-Za-z0-9+/=]{8,}`,
			Keywords: []string{"basic"},
		},
		{
			// Registry credentials in docker config.json dumps.
			ID:       "registry-auth",
			Pattern:  `"auth"\s*:\s*"[A-Za-z0-9+/=]{12,}"`,
			Keywords: []string{"auth"},
		},
		{
			ID:       "generic-secret",
			Pattern:  `(?i)(?:secret|password|passwd|pwd|token|api[_-]?key)\s*[:=]\s*['"]?[^\s'",]{8,}['"]?`,
			Keywords: []string{"secret", "pass", "pwd", "token", "key"},
		},
		{
			ID:      "github-token",
			Pattern: `(?:ghp|gho|ghu|ghs)_[A-Za-z0-9]{36}|github_pat_[A-Za-z0-9_]{22,}`,
		},
		{
			ID:      "gitlab-token",
			Pattern: `glpat-[A-Za-z0-9\-]{20,}`,
		},
		{
			ID:      "slack-token",
			Pattern: `xox[baprs]-[A-Za-z0-9\-]{10,}`,
		},
		{
			ID:      "stripe-key",
			Pattern: `(?:sk|rk)_(?:live|test)_[A-Za-z0-9]{24,}`,
		},
		{
			ID:      "jwt",
			Pattern: `eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*`,
		},
	}
}
