// Package survey holds the survey record shared by the store, the
// communicator and the HTTP handlers.
package survey

import (
	"regexp"
	"strings"
)

// idPrefix marks a URL segment as a survey id.
const idPrefix = "::"

// IDPattern matches a survey id URL segment. The A-z range is deliberately
// the raw ASCII span 0x41-0x7A so ids minted by earlier deployments keep working.
const IDPattern = `::[A-z0-9]{4,8}`

var idSegment = regexp.MustCompile(`^` + IDPattern + `$`)

// ParseEnketoID extracts the survey id from a URL segment such as "::abcd".
func ParseEnketoID(segment string) (string, bool) {
	if !idSegment.MatchString(segment) {
		return "", false
	}
	return strings.TrimPrefix(segment, idPrefix), true
}

// Credentials authenticate requests to the OpenRosa server on behalf of the user.
type Credentials struct {
	User   string
	Pass   string
	Bearer string
}

// Empty reports whether no credential is set.
func (c *Credentials) Empty() bool {
	return c == nil || (c.User == "" && c.Pass == "" && c.Bearer == "")
}

// XFormInfo is one entry of an OpenRosa formList.
type XFormInfo struct {
	FormID      string
	Name        string
	Version     string
	Hash        string
	DownloadURL string
	ManifestURL string
}

// Survey links a survey id to a form on an OpenRosa server. Credentials, Info
// and XForm are filled in per request as the survey moves through the
// communicator.
type Survey struct {
	EnketoID       string
	OpenRosaServer string
	OpenRosaID     string
	Active         bool

	Credentials *Credentials
	Info        *XFormInfo
	XForm       string
}

// OpenRosaKey is the key identifying the form across stores: "or:<server>/<formID>".
func (s *Survey) OpenRosaKey() string {
	return "or:" + strings.TrimRight(s.OpenRosaServer, "/") + "/" + s.OpenRosaID
}
