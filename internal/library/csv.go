package library

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

var csvHeader = []string{"title", "playtime", "image_url", "last_played"}

// IsCSV reports whether a catalog path should be read or written as CSV.
func IsCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// DecodeCSV reads a catalog written by WriteCSV. Columns are matched by
// header name so their order does not matter.
func DecodeCSV(r io.Reader) ([]Game, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := col["title"]; !ok {
		return nil, errors.New("CSV catalog has no title column")
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var games []Game
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		games = append(games, Game{
			Title:      field(rec, "title"),
			Playtime:   field(rec, "playtime"),
			ImageURL:   field(rec, "image_url"),
			LastPlayed: parseEpoch(json.RawMessage(strconv.Quote(field(rec, "last_played")))),
		})
	}
	return games, nil
}

// WriteCSV writes games with a title,playtime,image_url,last_played header.
// A zero last_played is written as an empty cell.
func WriteCSV(w io.Writer, games []Game) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, g := range games {
		last := ""
		if g.LastPlayed != 0 {
			last = strconv.FormatInt(g.LastPlayed, 10)
		}
		if err := cw.Write([]string{g.Title, g.Playtime, g.ImageURL, last}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes games as an indented JSON array.
func WriteJSON(w io.Writer, games []Game) error {
	if games == nil {
		games = []Game{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(games)
}
