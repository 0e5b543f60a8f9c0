// Package report renders the three audit artifacts: the consolidated JSON,
// the HTML report, and the PDF report.
package report

import (
	"bytes"
	"fmt"

	"encoding/json"

	"github.com/mnardelli/audimed/pkg/models"
)

// RenderJSON serializes the full audit result, indented, with accented text
// left as UTF-8 rather than escaped.
func RenderJSON(result models.AuditResult) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return nil, fmt.Errorf("encode audit result: %w", err)
	}
	return buf.Bytes(), nil
}
