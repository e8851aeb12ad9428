// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

package useragent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sentra-app/sentra/pkg/useragent"
)

/*
TestParse_Families checks the browser/OS/device classification table.
*/
func TestParse_Families(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		browser string
		os      string
		device  string
	}{
		{
			name:    "chrome_on_windows",
			raw:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			browser: "Chrome",
			os:      "Windows",
			device:  "Desktop",
		},
		{
			name:    "edge_beats_chrome",
			raw:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91",
			browser: "Edge",
			os:      "Windows",
			device:  "Desktop",
		},
		{
			name:    "safari_on_iphone",
			raw:     "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/604.1",
			browser: "Safari",
			os:      "iOS",
			device:  "Mobile",
		},
		{
			name:    "firefox_on_linux",
			raw:     "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
			browser: "Firefox",
			os:      "Linux",
			device:  "Desktop",
		},
		{
			name:    "android_mobile_chrome",
			raw:     "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			browser: "Chrome",
			os:      "Android",
			device:  "Mobile",
		},
		{
			name:    "empty_string",
			raw:     "",
			browser: "Other",
			os:      "Other",
			device:  "Other",
		},
		{
			name:    "garbage",
			raw:     "definitely-not-a-browser",
			browser: "Other",
			os:      "Other",
			device:  "Other",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := useragent.Parse(tt.raw)
			assert.Equal(t, tt.browser, parsed.Browser)
			assert.Equal(t, tt.os, parsed.OS)
			assert.Equal(t, tt.device, parsed.Device)
			assert.Equal(t, tt.raw, parsed.Raw)
		})
	}
}

/*
TestParse_Version verifies version extraction for a known family.
*/
func TestParse_Version(t *testing.T) {
	parsed := useragent.Parse("Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
	assert.Equal(t, "121.0", parsed.BrowserVersion)
}
