package mcpserver

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"canvas/internal/domain"
)

// numberArg reads an optional numeric argument.
func numberArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// idArg reads a required block or link id.
func idArg(args map[string]any, key string) (int, error) {
	f, ok := numberArg(args, key)
	if !ok || f != float64(int(f)) || f <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer id", key)
	}
	return int(f), nil
}

// parseIDs parses "1, 2,3" into ids.
func parseIDs(raw string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no ids given")
	}
	return ids, nil
}

// patchContent overlays the JSON object raw onto c, keeping fields raw
// doesn't mention.
func patchContent(c domain.Content, raw string) (domain.Content, error) {
	var err error
	out := domain.MatchContent(c,
		func(w domain.Webview) domain.Content {
			err = json.Unmarshal([]byte(raw), &w)
			return w
		},
		func(t domain.Text) domain.Content {
			err = json.Unmarshal([]byte(raw), &t)
			return t
		},
		func(im domain.Image) domain.Content {
			err = json.Unmarshal([]byte(raw), &im)
			return im
		},
	)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return out, nil
}
