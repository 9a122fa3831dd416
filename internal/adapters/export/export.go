// Package export renders collected users as json, csv or text documents.
package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/potato-cli/internal/domain"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "text"
)

func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatText:
		return "txt"
	default:
		return ""
	}
}

func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unsupported export format %q (json|csv|text)", domain.ErrInvalidArgument, raw)
	}
}

// Serialize renders users in the given format.
//
// The csv header is taken from the first record only and values are written
// verbatim, without quoting. Records whose populated fields differ from the first
// record's produce rows that do not line up with the header.
func Serialize(users []domain.CollectedUser, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return serializeJSON(users)
	case FormatCSV:
		return []byte(serializeCSV(users)), nil
	case FormatText:
		return []byte(serializeText(users)), nil
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidArgument, format)
	}
}

// FileName suggests "{collection}_{unix millis}.{ext}".
func FileName(collection string, format Format, now time.Time) string {
	return collection + "_" + strconv.FormatInt(now.UnixMilli(), 10) + "." + format.Extension()
}

func serializeJSON(users []domain.CollectedUser) ([]byte, error) {
	if users == nil {
		users = []domain.CollectedUser{}
	}

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json export: %w", err)
	}

	return data, nil
}

func serializeCSV(users []domain.CollectedUser) string {
	if len(users) == 0 {
		return ""
	}

	header := users[0].Fields()
	keys := make([]string, 0, len(header))
	for _, field := range header {
		keys = append(keys, field.Key)
	}

	rows := make([]string, 0, len(users)+1)
	rows = append(rows, strings.Join(keys, ","))
	for _, user := range users {
		fields := user.Fields()
		values := make([]string, 0, len(fields))
		for _, field := range fields {
			values = append(values, field.Value)
		}
		rows = append(rows, strings.Join(values, ","))
	}

	return strings.Join(rows, "\n")
}

func serializeText(users []domain.CollectedUser) string {
	lines := make([]string, 0, len(users))
	for _, user := range users {
		lines = append(lines, fmt.Sprintf("用户名: %s | 手机: %s | 来源: %s | 时间: %s",
			user.Username, user.Phone, user.Source, domain.FormatTimestamp(user.CollectedAt)))
	}

	return strings.Join(lines, "\n")
}
