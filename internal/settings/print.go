package settings

import (
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/pretty"
)

const printSeparator = "----------------------------------------------"

// Print writes a human-readable listing of all settings to w:
//
//	Settings
//	----------------------------------------------
//	Name: ForcePMKID
//	Type: bool
//	Value: true
//	----------------------------------------------
func (s *Store) Print(w io.Writer) error {
	descriptors, err := s.Descriptors()
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("Settings\n" + printSeparator + "\n")
	for _, d := range descriptors {
		fmt.Fprintf(&b, "Name: %s\nType: %s\nValue: %s\n", d.Name, d.Type, d.Value)
		if d.Range != nil {
			fmt.Fprintf(&b, "Range: %s..%s\n", d.Range.Min, d.Range.Max)
		}
		b.WriteString(printSeparator + "\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("printing settings: %w", err)
	}
	return nil
}

// Pretty returns the canonical string indented for diagnostic display.
func (s *Store) Pretty() string {
	return string(pretty.Pretty([]byte(s.Canonical())))
}
