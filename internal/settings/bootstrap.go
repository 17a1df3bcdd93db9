package settings

import (
	"fmt"

	"github.com/spf13/afero"
)

// Default setting names. UI code enumerates settings by index and assumes
// this order when no document has been edited.
const (
	ForcePMKID = "ForcePMKID"
	ForceProbe = "ForceProbe"
	SavePCAP   = "SavePCAP"
	EnableLED  = "EnableLED"
)

// DefaultDocument returns the document written when none exists or the
// stored one cannot be read: four boolean flags, all enabled.
func DefaultDocument() Document {
	names := []string{ForcePMKID, ForceProbe, SavePCAP, EnableLED}

	doc := Document{Settings: make([]Descriptor, 0, len(names))}
	for _, name := range names {
		doc.Settings = append(doc.Settings, Descriptor{
			Name:  name,
			Type:  TypeBool,
			Value: BoolValue(true),
			Range: &Range{Min: BoolValue(false), Max: BoolValue(true)},
		})
	}
	return doc
}

// createDefault serialises doc and writes it through to path.
// A document that exists only in memory is not a valid outcome, so the
// canonical string is returned only after the write succeeded.
func createDefault(fsys afero.Fs, path string, doc Document) (string, error) {
	canonical, err := doc.Marshal()
	if err != nil {
		return "", fmt.Errorf("serialising default settings: %w", err)
	}
	if err := writeDocument(fsys, path, canonical); err != nil {
		return "", fmt.Errorf("writing default settings: %w", err)
	}
	return canonical, nil
}
