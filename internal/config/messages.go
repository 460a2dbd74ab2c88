package config

import "fmt"

const (
	errRequiredEnvNotSetFmt = "required environment variable %s is not set"
	errUnsupportedValueFmt  = "unsupported value %q for %s"
)

type messageBuilders struct {
	requiredEnvNotSet func(string) string
	unsupportedValue  func(key, value string) string
}

func newMessageBuilders() messageBuilders {
	return messageBuilders{
		requiredEnvNotSet: func(key string) string {
			return fmt.Sprintf(errRequiredEnvNotSetFmt, key)
		},
		unsupportedValue: func(key, value string) string {
			return fmt.Sprintf(errUnsupportedValueFmt, value, key)
		},
	}
}

var messages = newMessageBuilders()
