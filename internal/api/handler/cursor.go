package handler

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/studioops/fulfillment-be/internal/pipeline/service"
)

// DecodeJobCursor parses an opaque list cursor. An empty string is no cursor.
func DecodeJobCursor(cursorStr string) (*service.JobCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(string(decoded), "|")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	var createdAt int64
	if _, err := fmt.Sscanf(parts[0], "%d", &createdAt); err != nil {
		return nil, fmt.Errorf("invalid createdAt in cursor: %w", err)
	}

	return &service.JobCursor{
		CreatedAt: time.Unix(0, createdAt),
		JobID:     parts[1],
	}, nil
}

// EncodeJobCursor renders a cursor as an opaque base64 token.
func EncodeJobCursor(cursor *service.JobCursor) string {
	cs := fmt.Sprintf("%d|%s", cursor.CreatedAt.UnixNano(), cursor.JobID)
	return base64.StdEncoding.EncodeToString([]byte(cs))
}
