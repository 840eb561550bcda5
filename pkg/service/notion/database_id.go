package notion

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ErrInvalidDatabaseID is returned when a database reference is neither an ID nor a Notion URL
var ErrInvalidDatabaseID = goerr.New("invalid Notion database ID")

var hexID = regexp.MustCompile(`^[0-9a-f]{32}$`)

// ParseDatabaseID accepts a database ID with or without dashes, or the URL of the database
// as copied from the browser, and returns the dashed form the API expects.
func ParseDatabaseID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", goerr.Wrap(ErrInvalidDatabaseID, "empty database reference")
	}

	raw := ref
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", goerr.Wrap(ErrInvalidDatabaseID, "malformed URL", goerr.V("ref", ref))
		}
		if host := u.Hostname(); host != "notion.so" && !strings.HasSuffix(host, ".notion.so") && !strings.HasSuffix(host, ".notion.site") {
			return "", goerr.Wrap(ErrInvalidDatabaseID, "not a Notion URL", goerr.V("ref", ref))
		}
		segments := strings.Split(strings.TrimRight(u.Path, "/"), "/")
		raw = segments[len(segments)-1]
	}

	// a page slug carries the ID as its last 32 hex characters, after the title
	clean := strings.ToLower(strings.ReplaceAll(raw, "-", ""))
	if len(clean) > 32 {
		clean = clean[len(clean)-32:]
	}
	if !hexID.MatchString(clean) {
		return "", goerr.Wrap(ErrInvalidDatabaseID, "no database ID found", goerr.V("ref", ref))
	}

	return clean[0:8] + "-" + clean[8:12] + "-" + clean[12:16] + "-" + clean[16:20] + "-" + clean[20:32], nil
}
