package fetch

import (
	"fmt"
	"net/url"
	"strings"
)

// ExportURL derives a CSV export URL from a Google Sheets link. An
// "/edit" viewer URL becomes "/export?format=csv", carrying the sheet
// gid when the link names one (fragment or query). URLs that already
// point at an export or a .csv resource pass through unchanged.
func ExportURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("fetch: parse sheet url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("fetch: not an absolute url: %q", raw)
	}

	if strings.Contains(u.Path, "/export") || strings.HasSuffix(u.Path, ".csv") {
		return raw, nil
	}

	gid := u.Query().Get("gid")
	if f := strings.TrimPrefix(u.Fragment, "gid="); f != u.Fragment && f != "" {
		gid = f
	}

	if i := strings.Index(u.Path, "/edit"); i >= 0 {
		u.Path = u.Path[:i]
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/export"

	q := url.Values{"format": []string{"csv"}}
	if gid != "" {
		q.Set("gid", gid)
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String(), nil
}
