package resultset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/text/unicode/norm"
)

// DomainResultSet prefixes result-set fingerprints.
// Version suffix enables future algorithm migration.
const DomainResultSet = "sailors/resultset/v1"

// MarshalCanonical encodes the rows of rs as deterministic JSON:
// an array of row arrays, no whitespace, no HTML escaping, NFC strings,
// shortest round-trip floats, times as RFC 3339 UTC strings.
//
// Column names are not part of the encoding, so two result sets with equal
// rows encode identically even when their aggregates are named differently.
func MarshalCanonical(rs *ResultSet) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	if rs != nil {
		for i, row := range rs.Rows {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('[')
			for j, cell := range row {
				if j > 0 {
					buf.WriteByte(',')
				}
				if err := writeCanonical(&buf, Normalize(cell)); err != nil {
					return nil, fmt.Errorf("row %d column %d: %w", i, j, err)
				}
			}
			buf.WriteByte(']')
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("non-finite float %v", val)
		}
		buf.WriteString(strconv.FormatFloat(val, 'g', -1, 64))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case string:
		return writeCanonicalString(buf, val)
	case time.Time:
		return writeCanonicalString(buf, val.UTC().Format(time.RFC3339Nano))
	default:
		return fmt.Errorf("unsupported cell type %T", v)
	}
	return nil
}

// writeCanonicalString writes s as a JSON string with NFC normalization
// and without HTML escaping.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false) // CRITICAL: <, >, & must NOT be escaped
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// json.Encoder adds trailing newline, remove it
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

// Fingerprint returns a hex SHA-256 of the canonical rows.
// Format: SHA256(domain + 0x00 + canonical)
func Fingerprint(rs *ResultSet) (string, error) {
	canonical, err := MarshalCanonical(rs)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainResultSet))
	h.Write([]byte{0x00}) // Null separator prevents domain/data ambiguity
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}
