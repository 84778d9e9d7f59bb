package view

import (
	"net/url"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewOptions(t *testing.T) {
	Convey("Given webform query parameters", t, func() {
		Convey("When iframe is set", func() {
			o := New(TypePreview, url.Values{"iframe": {"true"}}, true)

			Convey("Then the flags should be carried over", func() {
				So(o.Type, ShouldEqual, TypePreview)
				So(o.Iframe, ShouldBeTrue)
				So(o.Logout, ShouldBeTrue)
				So(o.SubmissionErrors, ShouldBeNil)
				So(o.HasErrors(), ShouldBeFalse)
			})
		})

		Convey("When iframe is present but empty", func() {
			o := New(TypeWebform, url.Values{"iframe": {""}}, false)

			Convey("Then iframe mode should be off", func() {
				So(o.Iframe, ShouldBeFalse)
			})
		})
	})
}

func TestValidateCustomLogo(t *testing.T) {
	Convey("Given the custom logo validator", t, func() {
		validate := func(q url.Values) *Options {
			o := New(TypeWebform, q, false)
			ValidateCustomLogo(q, o)
			return o
		}

		Convey("When no customLogo is given", func() {
			o := validate(url.Values{"parentWindowOrigin": {"https://a.org"}})

			Convey("Then nothing should be recorded", func() {
				So(o.CustomLogo, ShouldBeEmpty)
				So(o.SubmissionErrors, ShouldBeNil)
			})
		})

		Convey("When logo and origin share a host", func() {
			o := validate(url.Values{
				"customLogo":         {"https://a.org/img/logo.png"},
				"parentWindowOrigin": {"https://a.org"},
			})

			Convey("Then the logo should be kept without its scheme", func() {
				So(o.SubmissionErrors, ShouldBeNil)
				So(o.CustomLogo, ShouldEqual, "//a.org/img/logo.png")
			})
		})

		Convey("When the values are percent-encoded once more", func() {
			o := validate(url.Values{
				"customLogo":         {"https%3A%2F%2Fa.org%2Flogo.png"},
				"parentWindowOrigin": {"https%3A%2F%2Fa.org"},
			})

			Convey("Then they should be decoded before validation", func() {
				So(o.SubmissionErrors, ShouldBeNil)
				So(o.CustomLogo, ShouldEqual, "//a.org/logo.png")
			})
		})

		Convey("When host names differ only in case", func() {
			o := validate(url.Values{
				"customLogo":         {"https://A.org/logo.png"},
				"parentWindowOrigin": {"https://a.ORG:8443"},
			})

			Convey("Then they should match", func() {
				So(o.SubmissionErrors, ShouldBeNil)
				So(o.CustomLogo, ShouldEqual, "//A.org/logo.png")
			})
		})

		Convey("When the logo is hosted elsewhere", func() {
			o := validate(url.Values{
				"customLogo":         {"https://evil.org/logo.png"},
				"parentWindowOrigin": {"https://a.org"},
			})

			Convey("Then the host error should be recorded under customLogo", func() {
				So(o.CustomLogo, ShouldBeEmpty)
				So(o.SubmissionErrors["customLogo"], ShouldResemble, []string{"Must be hosted in a.org"})
				So(o.SubmissionErrors, ShouldNotContainKey, "parentWindowOrigin")
			})
		})

		Convey("When parentWindowOrigin is missing", func() {
			o := validate(url.Values{"customLogo": {"https://a.org/logo.png"}})

			Convey("Then the origin should be required", func() {
				So(o.CustomLogo, ShouldBeEmpty)
				So(o.SubmissionErrors["parentWindowOrigin"], ShouldResemble, []string{"Required by customLogo"})
			})
		})

		Convey("When the logo carries script characters", func() {
			o := validate(url.Values{
				"customLogo":         {"javascript:alert('x')"},
				"parentWindowOrigin": {"https://a.org"},
			})

			Convey("Then the charset and host errors should both be recorded", func() {
				So(o.CustomLogo, ShouldBeEmpty)
				So(o.SubmissionErrors["customLogo"], ShouldContain, "Must be of these characters: A..Z a..z 0..9 _:/.-")
				So(o.SubmissionErrors["customLogo"], ShouldContain, "Must be hosted in a.org")
			})
		})

		Convey("When the logo has a malformed escape", func() {
			o := validate(url.Values{
				"customLogo":         {"https://a.org/%zz.png"},
				"parentWindowOrigin": {"https://a.org"},
			})

			Convey("Then it should be reported instead of failing the request", func() {
				So(o.CustomLogo, ShouldBeEmpty)
				So(o.SubmissionErrors["customLogo"], ShouldContain, "Must be a valid URI component")
			})
		})

		Convey("When errors exist for several params", func() {
			o := validate(url.Values{"customLogo": {"<script>"}})

			Convey("Then ErrorParams should list them sorted", func() {
				So(o.ErrorParams(), ShouldResemble, []string{"customLogo", "parentWindowOrigin"})
			})

			Convey("And Errors should group the messages in the same order", func() {
				errs := o.Errors()
				So(errs, ShouldHaveLength, 2)
				So(errs[0].Param, ShouldEqual, "customLogo")
				So(errs[0].Messages, ShouldResemble, o.SubmissionErrors["customLogo"])
				So(errs[1].Param, ShouldEqual, "parentWindowOrigin")
			})
		})

		Convey("When no errors exist", func() {
			o := validate(url.Values{})

			Convey("Then Errors should be empty", func() {
				So(o.Errors(), ShouldBeNil)
			})
		})
	})
}
