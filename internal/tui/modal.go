package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/JohnDeved/playshelf/internal/library"
	"github.com/JohnDeved/playshelf/internal/playtime"
	"github.com/JohnDeved/playshelf/internal/preview"
	"github.com/JohnDeved/playshelf/internal/util"
)

// imageMsg carries the result of one modal image load.
type imageMsg struct {
	gen     int
	url     string
	hiRes   bool
	preview string
	err     error
}

// modalModel is the detail view for one game. Image loads run under ctx and
// are tagged with gen so results for a closed or replaced modal are dropped.
type modalModel struct {
	open       bool
	gen        int
	row        library.Row
	lowURL     string
	hiURL      string
	displayURL string
	preview    string
	hiShown    bool
	loading    bool
	cols, rows int
	cancel     context.CancelFunc
}

// show opens the modal for row and returns the image load commands.
func (md *modalModel) show(fetch imageFetcher, row library.Row, hiFrom, hiTo string, cols, rows int) tea.Cmd {
	md.close()

	ctx, cancel := context.WithCancel(context.Background())
	md.gen++
	md.open = true
	md.row = row
	md.lowURL = row.ImageURL
	md.hiURL = library.HiResImage(row.ImageURL, hiFrom, hiTo)
	md.displayURL = row.ImageURL
	md.preview = ""
	md.hiShown = false
	md.cols, md.rows = cols, rows
	md.cancel = cancel

	if md.lowURL == "" {
		md.loading = false
		return nil
	}

	cmds := []tea.Cmd{loadImage(ctx, fetch, md.gen, md.lowURL, false, cols, rows)}
	md.loading = md.hiURL != md.lowURL
	if md.loading {
		cmds = append(cmds, loadImage(ctx, fetch, md.gen, md.hiURL, true, cols, rows))
	}
	return tea.Batch(cmds...)
}

// close dismisses the modal and cancels outstanding loads.
func (md *modalModel) close() {
	if md.cancel != nil {
		md.cancel()
		md.cancel = nil
	}
	md.open = false
	md.loading = false
}

// apply folds an image result into the modal. Stale results are ignored.
func (md *modalModel) apply(msg imageMsg) {
	if !md.open || msg.gen != md.gen {
		return
	}
	if msg.hiRes {
		md.loading = false
		if msg.err != nil {
			log.Debug().Err(msg.err).Str("url", msg.url).Msg("hi-res image unavailable")
			return
		}
		md.hiShown = true
		md.displayURL = msg.url
		md.preview = msg.preview
		return
	}
	if msg.err != nil {
		log.Debug().Err(msg.err).Str("url", msg.url).Msg("image preview failed")
		return
	}
	if !md.hiShown {
		md.preview = msg.preview
	}
}

func loadImage(ctx context.Context, fetch imageFetcher, gen int, url string, hiRes bool, cols, rows int) tea.Cmd {
	return func() tea.Msg {
		data, err := fetch.FetchImage(ctx, url)
		if err != nil {
			return imageMsg{gen: gen, url: url, hiRes: hiRes, err: err}
		}
		img, err := preview.Decode(data)
		if err != nil {
			return imageMsg{gen: gen, url: url, hiRes: hiRes, err: err}
		}
		return imageMsg{gen: gen, url: url, hiRes: hiRes, preview: preview.Render(img, cols, rows)}
	}
}

func (md *modalModel) view(width, height int, spin string, now time.Time) string {
	innerWidth := width - modalStyle.GetHorizontalFrameSize() - 4
	if innerWidth < 20 {
		innerWidth = 20
	}

	var sb strings.Builder
	sb.WriteString(modalTitleStyle.Render(util.Truncate(md.row.Title, innerWidth)))
	sb.WriteString("\n\n")
	sb.WriteString(statLabelStyle.Render("Playtime     "))
	sb.WriteString(playtime.Format(md.row.PlayMins, playtime.Full))
	sb.WriteString("\n")
	sb.WriteString(statLabelStyle.Render("Last played  "))
	sb.WriteString(util.FormatDate(md.row.LastPlayed))
	if rel := util.FormatRelative(md.row.LastPlayed, now); rel != "" {
		sb.WriteString(helpStyle.Render(" (" + rel + ")"))
	}
	sb.WriteString("\n")
	sb.WriteString(statLabelStyle.Render("Image        "))
	if md.displayURL == "" {
		sb.WriteString(helpStyle.Render("none"))
	} else {
		sb.WriteString(locationStyle.Render(util.Truncate(md.displayURL, innerWidth-13)))
	}
	sb.WriteString("\n")

	if md.preview != "" {
		sb.WriteString("\n")
		sb.WriteString(md.preview)
		sb.WriteString("\n")
	}
	if md.loading {
		sb.WriteString("\n")
		sb.WriteString(loadingStyle.Render(fmt.Sprintf("%s Loading high-res image...", spin)))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("esc/q/x/click: close"))

	box := modalStyle.Render(sb.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
