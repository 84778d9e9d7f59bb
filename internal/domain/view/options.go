// Package view builds the per-request options record handed to the webform
// template.
package view

import (
	"net/url"
	"sort"
)

// Type selects the webform flavour.
type Type string

// View types. The plain webform has no type.
const (
	TypeWebform Type = ""
	TypePreview Type = "preview"
	TypeEdit    Type = "edit"
)

// OfflineManifest is the application cache manifest referenced by the offline webform.
const OfflineManifest = "/_/manifest.appcache"

// Query parameters read by the webform routes.
const (
	ParamIframe             = "iframe"
	ParamInstanceID         = "instance_id"
	ParamCustomLogo         = "customLogo"
	ParamParentWindowOrigin = "parentWindowOrigin"
)

// Options is the render-options record for one request.
type Options struct {
	Iframe     bool
	Logout     bool
	Manifest   string
	Type       Type
	EnketoID   string
	CustomLogo string

	// SubmissionErrors maps a query parameter to its validation messages.
	// It stays nil when every parameter is valid.
	SubmissionErrors map[string][]string
}

// New builds the options shared by every webform flavour.
func New(t Type, query url.Values, logout bool) *Options {
	return &Options{
		Type:   t,
		Iframe: query.Get(ParamIframe) != "",
		Logout: logout,
	}
}

// AddError records a validation message for a parameter.
func (o *Options) AddError(param, msg string) {
	if o.SubmissionErrors == nil {
		o.SubmissionErrors = make(map[string][]string)
	}
	o.SubmissionErrors[param] = append(o.SubmissionErrors[param], msg)
}

// HasErrors reports whether any validation message was recorded.
func (o *Options) HasErrors() bool {
	return len(o.SubmissionErrors) > 0
}

// ErrorParams returns the parameters with errors in a stable order.
func (o *Options) ErrorParams() []string {
	params := make([]string, 0, len(o.SubmissionErrors))
	for p := range o.SubmissionErrors {
		params = append(params, p)
	}
	sort.Strings(params)
	return params
}

// FieldError holds the validation messages of one query parameter.
type FieldError struct {
	Param    string
	Messages []string
}

// Errors returns the validation messages grouped by parameter, in the order
// of ErrorParams.
func (o *Options) Errors() []FieldError {
	params := o.ErrorParams()
	if len(params) == 0 {
		return nil
	}
	out := make([]FieldError, 0, len(params))
	for _, p := range params {
		out = append(out, FieldError{Param: p, Messages: o.SubmissionErrors[p]})
	}
	return out
}
