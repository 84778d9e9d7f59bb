package communicator

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ivansugi/enketo-express-oc/internal/domain/survey"
)

// formList is the OpenRosa <xforms> document. Element names match in any
// namespace so both namespaced and bare lists decode.
type formList struct {
	XMLName xml.Name    `xml:"xforms"`
	XForms  []formEntry `xml:"xform"`
}

type formEntry struct {
	FormID      string `xml:"formID"`
	Name        string `xml:"name"`
	Version     string `xml:"version"`
	Hash        string `xml:"hash"`
	DownloadURL string `xml:"downloadUrl"`
	ManifestURL string `xml:"manifestUrl"`
}

// findForm decodes a formList and returns the entry for formID.
// Returns survey.ErrFormNotListed when no entry matches.
func findForm(r io.Reader, formID string) (*survey.XFormInfo, error) {
	var list formList
	if err := xml.NewDecoder(r).Decode(&list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidList, err)
	}

	for _, e := range list.XForms {
		if strings.TrimSpace(e.FormID) != formID {
			continue
		}
		return &survey.XFormInfo{
			FormID:      formID,
			Name:        strings.TrimSpace(e.Name),
			Version:     strings.TrimSpace(e.Version),
			Hash:        strings.TrimSpace(e.Hash),
			DownloadURL: strings.TrimSpace(e.DownloadURL),
			ManifestURL: strings.TrimSpace(e.ManifestURL),
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", survey.ErrFormNotListed, formID)
}
