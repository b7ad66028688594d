package utils

import (
	"errors"
	"io/fs"
	"strconv"
)

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}

// viper reports a missing explicit config file as a plain fs error
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
