package audit

import (
	"fmt"

	"github.com/mssola/useragent"
)

// DescribeClient condenses a User-Agent header into "name/version (os)" for
// audit records. Bots are prefixed with "bot:".
func DescribeClient(userAgent string) string {
	if userAgent == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	name, version := ua.Browser()
	if ua.Bot() {
		return "bot:" + name
	}
	desc := name
	if version != "" {
		desc += "/" + version
	}
	if os := ua.OS(); os != "" {
		desc = fmt.Sprintf("%s (%s)", desc, os)
	}
	return desc
}
