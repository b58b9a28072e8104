package constants

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"

	EnvPrefix = "FIELDZ"
)
