
package ioformats

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"harborview-ssg/internal/crawler"
)

// ReadTargets reads extra live-check targets from a CSV (header with "url",
// optionally "route") or NDJSON file. If ext cannot be determined, tries CSV
// first then NDJSON.
func ReadTargets(path string) ([]crawler.Target, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return readCSV(path)
	case ".ndjson", ".jsonl":
		return readNDJSON(path)
	default:
		if ts, err := readCSV(path); err == nil && len(ts) > 0 {
			return ts, nil
		}
		return readNDJSON(path)
	}
}

func readCSV(path string) ([]crawler.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty csv")
	}
	urlCol, routeCol := -1, -1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "url":
			urlCol = i
		case "route", "path":
			routeCol = i
		}
	}
	if urlCol == -1 {
		return nil, errors.New("csv must contain a 'url' header column")
	}
	var out []crawler.Target
	for _, row := range rows[1:] {
		if urlCol >= len(row) {
			continue
		}
		u := strings.TrimSpace(row[urlCol])
		if u == "" {
			continue
		}
		t := crawler.Target{URL: u}
		if routeCol >= 0 && routeCol < len(row) {
			t.Route = strings.TrimSpace(row[routeCol])
		}
		out = append(out, t)
	}
	return out, nil
}

func readNDJSON(path string) ([]crawler.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []crawler.Target
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		// allow raw string or {"url": "...", "route": "..."}
		if strings.HasPrefix(line, "{") {
			var t crawler.Target
			if err := json.Unmarshal([]byte(line), &t); err == nil && t.URL != "" {
				out = append(out, t)
				continue
			}
		}
		out = append(out, crawler.Target{URL: line})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no urls found in ndjson")
	}
	return out, nil
}

// WriteNDJSON writes one JSON document per line.
func WriteNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}
