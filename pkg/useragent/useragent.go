// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

/*
Package useragent parses raw User-Agent strings into a structured form.

Session records store both the raw header and this parsed breakdown so that
account-activity views can show "Chrome on Windows" instead of an opaque
token soup. The parser is deliberately small: it recognizes the major
browser and OS families and leaves everything else as "Other".
*/
package useragent

import "strings"

// UserAgent is the structured breakdown of a raw User-Agent header.
type UserAgent struct {
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browser_version,omitempty"`
	OS             string `json:"os"`
	Device         string `json:"device"`
	Raw            string `json:"-"`
}

// matcher pairs a needle in the raw string with the family it identifies.
// Order matters: more specific families are listed before generic ones
// (e.g. Edge before Chrome, Chrome before Safari).
type matcher struct {
	needle string
	family string
}

var browserMatchers = []matcher{
	{"Edg/", "Edge"},
	{"OPR/", "Opera"},
	{"SamsungBrowser/", "Samsung Internet"},
	{"Firefox/", "Firefox"},
	{"Chrome/", "Chrome"},
	{"Safari/", "Safari"},
}

var osMatchers = []matcher{
	{"Windows NT", "Windows"},
	{"Android", "Android"},
	{"iPhone OS", "iOS"},
	{"iPad", "iPadOS"},
	{"Mac OS X", "macOS"},
	{"CrOS", "ChromeOS"},
	{"Linux", "Linux"},
}

// Parse breaks a raw User-Agent string into browser, OS, and device family.
//
// An empty or unrecognized input yields "Other" families rather than an
// error — the session record must be creatable from any client.
func Parse(raw string) UserAgent {
	parsed := UserAgent{
		Browser: "Other",
		OS:      "Other",
		Device:  "Other",
		Raw:     raw,
	}

	if raw == "" {
		return parsed
	}

	for _, m := range browserMatchers {
		if strings.Contains(raw, m.needle) {
			parsed.Browser = m.family
			parsed.BrowserVersion = versionAfter(raw, m.needle)
			break
		}
	}

	for _, m := range osMatchers {
		if strings.Contains(raw, m.needle) {
			parsed.OS = m.family
			break
		}
	}

	parsed.Device = deviceFamily(raw, parsed.OS)
	return parsed
}

// versionAfter extracts the dotted version immediately following needle.
func versionAfter(raw, needle string) string {
	index := strings.Index(raw, needle)
	if index < 0 {
		return ""
	}

	rest := raw[index+len(needle):]
	end := strings.IndexFunc(rest, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})

	if end == -1 {
		return rest
	}
	return rest[:end]
}

// deviceFamily classifies the hardware class from OS hints.
func deviceFamily(raw, os string) string {
	switch os {
	case "Android":
		if strings.Contains(raw, "Mobile") {
			return "Mobile"
		}
		return "Tablet"
	case "iOS":
		return "Mobile"
	case "iPadOS":
		return "Tablet"
	case "Windows", "macOS", "Linux", "ChromeOS":
		return "Desktop"
	}
	return "Other"
}
