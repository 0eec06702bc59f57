package expression

import (
	"strings"

	"github.com/pingcap/tidb/pkg/parser/format"
)

// QuoteIdentifier renders name as a back-quoted identifier.
func QuoteIdentifier(name string) string {
	var sb strings.Builder
	format.NewRestoreCtx(format.DefaultRestoreFlags, &sb).WriteName(name)
	return sb.String()
}

// QuoteString renders s as a single-quoted string literal.
func QuoteString(s string) string {
	var sb strings.Builder
	format.NewRestoreCtx(format.DefaultRestoreFlags, &sb).WriteString(s)
	return sb.String()
}
