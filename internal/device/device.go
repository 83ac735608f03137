// Package device maps a User-Agent to the coarse class the resolver tunes for.
package device

import (
	"net/http"
	"strings"

	"github.com/mohammed-shakir/career-locator/internal/locate"
)

// HeaderHint lets a client state its class explicitly, overriding sniffing.
const HeaderHint = "X-Device-Class"

// Classify sniffs a User-Agent. iPhone/iPad/iPod and plain Safari are
// IOSSafari; Android is Android; everything else is Desktop.
func Classify(ua string) locate.DeviceClass {
	s := strings.ToLower(ua)
	switch {
	case strings.Contains(s, "iphone"), strings.Contains(s, "ipad"), strings.Contains(s, "ipod"):
		return locate.IOSSafari
	case strings.Contains(s, "android"):
		return locate.Android
	case strings.Contains(s, "safari") && !strings.Contains(s, "chrome") && !strings.Contains(s, "chromium"):
		return locate.IOSSafari
	default:
		return locate.Desktop
	}
}

// FromRequest prefers the explicit hint header, then the User-Agent.
func FromRequest(r *http.Request) locate.DeviceClass {
	if hint := strings.TrimSpace(r.Header.Get(HeaderHint)); hint != "" {
		return locate.ParseDeviceClass(hint)
	}
	return Classify(r.UserAgent())
}
