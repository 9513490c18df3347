package dataset

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefinitionNameColumn names the column of a variable-definitions file that
// lists expected data columns.
const DefinitionNameColumn = "Column Name"

// ExpectedColumns extracts the column names declared by a definitions table.
// Invalid UTF-8 bytes are dropped.
func ExpectedColumns(defs *Table) ([]string, error) {
	if err := defs.Require(DefinitionNameColumn); err != nil {
		return nil, fmt.Errorf("definitions: %w", err)
	}
	var names []string
	for _, raw := range defs.Column(DefinitionNameColumn) {
		name := strings.TrimSpace(strings.ToValidUTF8(raw, ""))
		if name == "" || !utf8.ValidString(name) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// CheckDefinitions returns the declared columns missing from t. A missing
// definition column is reported as a warning by callers, not a failure.
func CheckDefinitions(t, defs *Table) ([]string, error) {
	expected, err := ExpectedColumns(defs)
	if err != nil {
		return nil, err
	}
	return t.Missing(expected...), nil
}
