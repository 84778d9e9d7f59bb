package view

import (
	"net/url"
	"regexp"
	"strings"
)

// Validation messages for the custom logo parameters.
const (
	msgLogoCharset      = "Must be of these characters: A..Z a..z 0..9 _:/.-"
	msgLogoEncoding     = "Must be a valid URI component"
	msgLogoURL          = "Must be a valid URL"
	msgOriginRequired   = "Required by customLogo"
	msgOriginEncoding   = "Must be a valid URI component"
	msgLogoHostedPrefix = "Must be hosted in "
)

// logoCharset keeps script out of the logo URL rendered into the page.
var logoCharset = regexp.MustCompile(`^[\w:/.-]+$`)

// ValidateCustomLogo checks the customLogo/parentWindowOrigin pair and, when
// both are acceptable, sets o.CustomLogo to the logo URL without its scheme.
// Problems are recorded on o and never abort the request.
func ValidateCustomLogo(query url.Values, o *Options) {
	raw := query.Get(ParamCustomLogo)
	if raw == "" {
		return
	}

	failed := false
	fail := func(param, msg string) {
		o.AddError(param, msg)
		failed = true
	}

	logo, err := url.PathUnescape(raw)
	if err != nil {
		fail(ParamCustomLogo, msgLogoEncoding)
		logo = raw
	}

	if !logoCharset.MatchString(logo) {
		fail(ParamCustomLogo, msgLogoCharset)
	}

	logoURL, err := url.Parse(logo)
	if err != nil {
		fail(ParamCustomLogo, msgLogoURL)
	}

	rawOrigin := query.Get(ParamParentWindowOrigin)
	if rawOrigin == "" {
		fail(ParamParentWindowOrigin, msgOriginRequired)
	} else if origin, err := url.PathUnescape(rawOrigin); err != nil {
		fail(ParamParentWindowOrigin, msgOriginEncoding)
	} else if logoURL != nil {
		// An unparsable origin has no hostname and can only match a host-less logo.
		originHost := ""
		if originURL, err := url.Parse(origin); err == nil {
			originHost = strings.ToLower(originURL.Hostname())
		}
		if strings.ToLower(logoURL.Hostname()) != originHost {
			fail(ParamCustomLogo, msgLogoHostedPrefix+originHost)
		}
	}

	if failed {
		return
	}

	logoURL.Scheme = ""
	o.CustomLogo = logoURL.String()
}
