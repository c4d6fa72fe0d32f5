// Package pgutils contains Postgres helpers shared by repositories.
package pgutils

import (
	"strconv"
	"strings"
)

// FormatVector renders an embedding as a pgvector literal, e.g. "[0.1,0.2]".
func FormatVector(vec []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
