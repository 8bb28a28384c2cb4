package respond

import (
	"regexp"
)

// The patterns cover the credentials this service actually handles:
// platform API tokens on outbound calls and alert webhook URLs, whose path
// carries the authentication token.
var (
	bearerTokenPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]+`)

	// access_token=... / api_key=... / token=... in query strings.
	tokenParamPattern = regexp.MustCompile(`((?:access_token|api_key|token)=)[^&\s":]+`)

	// Discord-style webhook URLs: /api/webhooks/{id}/{token}.
	discordWebhookPattern = regexp.MustCompile(`(/api/webhooks/\d+)/[A-Za-z0-9_-]+`)

	// Slack-style webhook URLs: hooks.slack.com/services/T.../B.../secret.
	slackWebhookPattern = regexp.MustCompile(`(hooks\.slack\.com/services)/[A-Za-z0-9/]+`)

	// Credentials embedded in URL userinfo.
	urlUserinfoPattern = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)
)

// SanitizeError returns the error message with credentials masked. It is
// applied to everything that reaches logs from an upstream or webhook
// error path.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = bearerTokenPattern.ReplaceAllString(msg, "Bearer ****")
	msg = tokenParamPattern.ReplaceAllString(msg, "$1****")
	msg = discordWebhookPattern.ReplaceAllString(msg, "$1/****")
	msg = slackWebhookPattern.ReplaceAllString(msg, "$1/****")
	msg = urlUserinfoPattern.ReplaceAllString(msg, "://$1:****@")

	return msg
}
