package lobid

import (
	"fmt"
	"strings"
)

// PrettyPrint dumps id as a human-readable, one-record-per-line listing
// intended for logs only; the exact format is not stable across versions.
//
// This reuses the same Walk every other derived operation uses, so unlike
// a hand-rolled diagnostic parser it can't drift from Length/MaxBlockKey/
// Remove on how an indirect record's total_len is read.
func PrettyPrint(id []byte) (string, error) {
	var sb strings.Builder
	var total uint64
	i := 0
	for rec, err := range Walk(id) {
		if err != nil {
			fmt.Fprintf(&sb, "[%d] <malformed: %v>\n", i, err)
			return sb.String(), err
		}
		switch rec.Kind {
		case KindInline:
			fmt.Fprintf(&sb, "[%d] inline len=%d\n", i, len(rec.Inline))
		case KindBlockRef:
			fmt.Fprintf(&sb, "[%d] block-ref len=%d key=%d\n", i, rec.Len, rec.Key)
		case KindIndirect:
			fmt.Fprintf(&sb, "[%d] indirect total_len=%d key=%d\n", i, rec.TotalLen, rec.Key)
		}
		total += rec.DeclaredLen()
		i++
	}
	fmt.Fprintf(&sb, "length=%d\n", total)
	return sb.String(), nil
}
