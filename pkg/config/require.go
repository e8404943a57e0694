package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustPositive(value int64, envName string) {
	if value <= 0 {
		log.Fatalf("env %s must be positive", envName)
	}
}
