package logger

import "regexp"

// Sensitive field patterns to filter from logs
var (
	secretPattern     = regexp.MustCompile(`(?i)(secret[_-]?access[_-]?key|secret|password|token)[\s:=]+[^\s&,]+`)
	accessKeyPattern  = regexp.MustCompile(`\b(AKIA|ASIA)[A-Z0-9]{12,}\b`)
	signaturePattern  = regexp.MustCompile(`(?i)(X-Amz-Signature|X-Amz-Credential|X-Amz-Security-Token|Signature)=[^\s&"]+`)
	authHeaderPattern = regexp.MustCompile(`(?i)(authorization)[\s:=]+("[^"]*"|[^\n]+)`)
)

const redactedPlaceholder = "[REDACTED]"

// SanitizeLogMessage removes credentials and request signatures from a message
// before it is written to the log. Provider errors sometimes echo the signed
// request back.
func SanitizeLogMessage(message string) string {
	message = authHeaderPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = signaturePattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = secretPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = accessKeyPattern.ReplaceAllString(message, redactedPlaceholder)
	return message
}
