package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/stemsi/submission-portal/internal/model"
)

// printResult writes v as indented JSON, or as the text lines produced by
// text when the format is text.
func printResult(w io.Writer, format string, v any, text func(io.Writer)) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

// parseFormData builds a partial form from key=value pairs and an optional
// JSON object. Pair values are always strings; the JSON object carries
// anything else, such as mcqAnswers. Pairs win over the JSON object.
func parseFormData(pairs []string, raw string) (model.FormData, error) {
	fields := map[string]any{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return model.FormData{}, fmt.Errorf("invalid --data JSON: %w", err)
		}
	}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return model.FormData{}, fmt.Errorf("invalid --set %q: want key=value", p)
		}
		fields[strings.TrimSpace(key)] = value
	}

	var fd model.FormData
	if len(fields) == 0 {
		return fd, nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fd, err
	}
	if err := json.Unmarshal(data, &fd); err != nil {
		return fd, fmt.Errorf("invalid form data: %w", err)
	}
	return fd, nil
}

func printFormData(w io.Writer, fd model.FormData) {
	data, err := json.Marshal(fd)
	if err != nil {
		return
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %v\n", k, fields[k])
	}
}
