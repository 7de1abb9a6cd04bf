package main

import (
	"net/url"
	"strings"
)

// extensionScheme is the URL scheme of Chrome extension origins.
const extensionScheme = "chrome-extension"

// callerOrigin returns the extension origin that Chrome passes as the first
// positional argument, or "" if there is none.
func callerOrigin(args []string) string {
	for _, arg := range args {
		if IsExtensionOrigin(arg) {
			return arg
		}
	}
	return ""
}

// IsExtensionOrigin returns true if s looks like "chrome-extension://ID/".
func IsExtensionOrigin(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return u.Scheme == extensionScheme && u.Host != "" && (u.Path == "" || u.Path == "/")
}
