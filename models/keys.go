package models

import "strings"

// KeySeparator separates the values of a composite group key
const KeySeparator = " | "

// JoinKey builds the printable form of a composite group key
func JoinKey(values []string) string {
	return strings.Join(values, KeySeparator)
}
