package survey

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseEnketoID(t *testing.T) {
	Convey("Given URL segments", t, func() {
		cases := []struct {
			segment string
			id      string
			ok      bool
		}{
			{"::abcd", "abcd", true},
			{"::YYYp8Xba", "YYYp8Xba", true},
			{"::a1B2", "a1B2", true},
			{"::ab_d", "ab_d", true}, // underscore sits inside the A-z range
			{"::abc", "", false},
			{"::abcdefghi", "", false},
			{"abcd", "", false},
			{":abcd", "", false},
			{"::ab-d", "", false},
			{"::ab.d", "", false},
			{"preview", "", false},
			{"", "", false},
		}

		for _, c := range cases {
			Convey("Segment "+c.segment, func() {
				id, ok := ParseEnketoID(c.segment)
				So(ok, ShouldEqual, c.ok)
				So(id, ShouldEqual, c.id)
			})
		}
	})
}

func TestCredentialsEmpty(t *testing.T) {
	Convey("Given credentials", t, func() {
		var none *Credentials
		So(none.Empty(), ShouldBeTrue)
		So((&Credentials{}).Empty(), ShouldBeTrue)
		So((&Credentials{User: "u"}).Empty(), ShouldBeFalse)
		So((&Credentials{Bearer: "t"}).Empty(), ShouldBeFalse)
	})
}

func TestOpenRosaKey(t *testing.T) {
	Convey("Given a survey", t, func() {
		s := &Survey{OpenRosaServer: "https://ona.io/enketo/", OpenRosaID: "widgets"}

		Convey("Then the key should drop the trailing slash", func() {
			So(s.OpenRosaKey(), ShouldEqual, "or:https://ona.io/enketo/widgets")
		})
	})
}
