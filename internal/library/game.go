// Package library holds the catalog data model and the pure derivations
// (filter, sort, stats) that the terminal and HTML views render.
package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/JohnDeved/playshelf/internal/playtime"
)

// Game is one catalog entry as stored in games.json.
type Game struct {
	Title      string `json:"title"`
	Playtime   string `json:"playtime,omitempty"`
	ImageURL   string `json:"image_url"`
	LastPlayed int64  `json:"last_played,omitempty"` // Unix seconds, 0 if never
}

// UnmarshalJSON accepts last_played as a number, a numeric string, an empty
// string or null. Anything else decodes to 0.
func (g *Game) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title      string          `json:"title"`
		Playtime   *string         `json:"playtime"`
		ImageURL   string          `json:"image_url"`
		LastPlayed json.RawMessage `json:"last_played"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	g.Title = raw.Title
	g.Playtime = ""
	if raw.Playtime != nil {
		g.Playtime = *raw.Playtime
	}
	g.ImageURL = raw.ImageURL
	g.LastPlayed = parseEpoch(raw.LastPlayed)
	return nil
}

func parseEpoch(raw json.RawMessage) int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return max(n, 0)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f < math.MaxInt64 {
		return int64(f)
	}
	return 0
}

// DecodeGames reads a JSON array of games.
func DecodeGames(r io.Reader) ([]Game, error) {
	var games []Game
	if err := json.NewDecoder(r).Decode(&games); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return games, nil
}

// LoadFile reads a catalog from disk: CSV when the name ends in .csv,
// a JSON array otherwise.
func LoadFile(path string) ([]Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	if IsCSV(path) {
		return DecodeCSV(f)
	}
	return DecodeGames(f)
}

// Row is a Game with its playtime parsed to minutes.
type Row struct {
	Game
	PlayMins int `json:"play_mins"`
}

// UnmarshalJSON decodes the embedded Game leniently and keeps play_mins.
// Without it the Game decoder would be promoted and drop play_mins.
func (r *Row) UnmarshalJSON(data []byte) error {
	if err := r.Game.UnmarshalJSON(data); err != nil {
		return err
	}
	var extra struct {
		PlayMins int `json:"play_mins"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	r.PlayMins = max(extra.PlayMins, 0)
	return nil
}

// NewRows derives rows from games. The result is built once per load.
func NewRows(games []Game) []Row {
	rows := make([]Row, len(games))
	for i, g := range games {
		rows[i] = Row{Game: g, PlayMins: playtime.Parse(g.Playtime)}
	}
	return rows
}

// HiResImage returns the high-resolution variant of an image URL by
// replacing the first occurrence of from with to. With an empty from, or no
// occurrence, the URL is returned unchanged.
func HiResImage(imageURL, from, to string) string {
	if from == "" {
		return imageURL
	}
	return strings.Replace(imageURL, from, to, 1)
}
