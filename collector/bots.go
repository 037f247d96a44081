package collector

import "regexp"

// botPatterns classify automated accounts by username. Order matters
// only for short-circuiting; first match wins.
var botPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^.*bot$`),
	regexp.MustCompile(`(?i)^.*\[bot\]$`),
	regexp.MustCompile(`(?i)^dependabot.*`),
	regexp.MustCompile(`(?i)^renovate.*`),
	regexp.MustCompile(`(?i)^github-actions.*`),
	regexp.MustCompile(`(?i)^codecov.*`),
	regexp.MustCompile(`(?i)^greenkeeper.*`),
	regexp.MustCompile(`(?i)^snyk.*`),
	regexp.MustCompile(`(?i)^whitesource.*`),
	regexp.MustCompile(`(?i)^sonarcloud.*`),
	regexp.MustCompile(`(?i)^imgbot$`),
	regexp.MustCompile(`(?i)^allcontributors.*`),
	regexp.MustCompile(`(?i)^semantic-release.*`),
	regexp.MustCompile(`(?i)^stale.*`),
	regexp.MustCompile(`(?i)^mergify.*`),
	regexp.MustCompile(`(?i)^pre-commit-ci.*`),
}

// IsBot reports whether a username looks like an automation account.
// An empty username is never a bot.
func IsBot(username string) bool {
	if username == "" {
		return false
	}
	for _, p := range botPatterns {
		if p.MatchString(username) {
			return true
		}
	}
	return false
}

// FilterBots removes bot-matched entries from a contributors list,
// preserving the relative order of the rest. With exclude false the
// input is returned unchanged.
func FilterBots(contributors []Contributor, exclude bool) []Contributor {
	if !exclude {
		return contributors
	}
	filtered := make([]Contributor, 0, len(contributors))
	for _, c := range contributors {
		if !IsBot(c.Login) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
