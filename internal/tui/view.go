package tui

import (
	"fmt"
	"strings"

	"github.com/stavren/modelsync/internal/domain"
	"github.com/stavren/modelsync/internal/engine"
	"github.com/stavren/modelsync/internal/notify"
)

func (m browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("modelsync"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(m.filterSummary()))
	b.WriteString("\n\n")

	b.WriteString(m.search.View())
	if m.searching {
		b.WriteString("  " + m.spin.View() + dimStyle.Render("searching..."))
	}
	b.WriteString("\n\n")

	if m.searchErr != "" {
		b.WriteString(errStyle.Render("Search failed: "+m.searchErr) + "\n\n")
	}

	if m.detailOpen {
		b.WriteString(m.renderDetail())
	} else {
		b.WriteString(m.renderList())
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderNotices())
	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m browserModel) filterSummary() string {
	parts := []string{m.filters.Period}
	if m.filters.Sort != "" {
		parts = append(parts, m.filters.Sort)
	}
	if m.filters.Type != "" {
		parts = append(parts, m.filters.Type)
	}
	if m.filters.NSFW {
		parts = append(parts, "nsfw")
	}
	return strings.Join(parts, " · ")
}

func (m browserModel) renderList() string {
	if len(m.visible) == 0 {
		if m.searching {
			return dimStyle.Render("  loading...") + "\n"
		}
		return dimStyle.Render("  no models") + "\n"
	}

	rows := m.listHeight()
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := start + rows
	if end > len(m.visible) {
		end = len(m.visible)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		model := m.visible[i]
		line := m.renderRow(model)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if m.nextCursor != "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %d shown · n for more", len(m.visible))) + "\n")
	}
	return b.String()
}

// renderDetail shows the selected model's versions, newest first, each
// with its own resolved control.
func (m browserModel) renderDetail() string {
	model, ok := m.selected()
	if !ok {
		return dimStyle.Render("  nothing selected") + "\n"
	}

	var b strings.Builder
	b.WriteString(selectedStyle.Render(" "+model.Name+" ") + "\n")
	meta := model.Type
	if model.BaseModel != "" {
		meta += " · " + model.BaseModel
	}
	b.WriteString(dimStyle.Render("  "+meta) + "\n\n")

	if len(model.Versions) == 0 {
		b.WriteString(dimStyle.Render("  no published versions") + "\n")
		return b.String()
	}

	for i, version := range model.Versions {
		state := m.opts.Service.ResolveButtonForVersion(model, version.ID)
		name := version.Name
		if name == "" {
			name = version.ID
		}
		if len(name) > 32 {
			name = name[:29] + "..."
		}

		line := fmt.Sprintf("%-32s %-12s %s", name, dimStyle.Render(version.BaseModel), renderButton(state))
		if len(version.Files) > 0 {
			line += "  " + dimStyle.Render(version.Files[0].Name)
		}
		if version.PublishedAt != "" {
			line += "  " + dimStyle.Render(version.PublishedAt)
		}

		if i == m.detailCursor {
			b.WriteString("> " + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m browserModel) listHeight() int {
	h := m.height - 12
	if h < 5 {
		h = 5
	}
	return h
}

func (m browserModel) renderRow(model domain.Model) string {
	state := m.opts.Service.ResolveButtonFor(model)
	status := m.opts.Service.Projector().Status(model.ID)

	name := model.Name
	if len(name) > 48 {
		name = name[:45] + "..."
	}
	meta := model.Type
	if v := model.ResolveVersion(""); v.BaseModel != "" {
		meta += " · " + v.BaseModel
	}

	line := fmt.Sprintf("%-48s %-20s %s", name, dimStyle.Render(meta), renderButton(state))
	if detail := statusDetail(status); detail != "" {
		line += "  " + dimStyle.Render(detail)
	}
	return line
}

func renderButton(state engine.ButtonState) string {
	label := fmt.Sprintf("[%s]", state.Label)
	if !state.Enabled {
		return btnDisabledStyle.Render(label)
	}
	switch state.Kind {
	case engine.ButtonDanger:
		return btnDangerStyle.Render(label)
	case engine.ButtonWarning:
		return btnWarningStyle.Render(label)
	case engine.ButtonSuccess:
		return btnSuccessStyle.Render(label)
	default:
		return btnPrimaryStyle.Render(label)
	}
}

func statusDetail(status domain.RuntimeStatus) string {
	switch status.Phase {
	case domain.PhaseDownloading:
		detail := fmt.Sprintf("downloading %d%%", status.Progress)
		if status.Speed != "" {
			detail += " " + status.Speed
		}
		if status.ETA != "" {
			detail += " eta " + status.ETA
		}
		return detail
	case domain.PhaseHashing:
		return fmt.Sprintf("verifying %d%%", status.Progress)
	case domain.PhaseFailed:
		return "failed: " + status.Error
	case domain.PhaseQueued:
		return "queued"
	default:
		return ""
	}
}

func (m browserModel) renderStatusBar() string {
	svc := m.opts.Service

	stream := "offline"
	if m.opts.Stream != nil {
		stream = m.opts.Stream.State().String()
	}

	ds := svc.DaemonStatus()
	daemonState := "stopped"
	if ds.Running {
		daemonState = "running"
	}
	if ds.Paused || svc.Projector().Paused() {
		daemonState = "paused"
	}

	queued := len(svc.Store().Queue())
	done := len(svc.Store().Downloaded())
	bar := m.bar.ViewAs(float64(svc.GlobalProgress()) / 100)

	return statusBarStyle.Render(fmt.Sprintf(
		"stream: %s · daemon: %s · queue: %d · done: %d", stream, daemonState, queued, done,
	)) + " " + bar
}

func (m browserModel) renderNotices() string {
	if len(m.notices) == 0 {
		return ""
	}
	var b strings.Builder
	for _, n := range m.notices {
		b.WriteString(renderNotice(n) + "\n")
	}
	return b.String()
}

func renderNotice(n notify.Notice) string {
	switch n.Level {
	case notify.Danger:
		return noticeDangerStyle.Render("✗ " + n.Message)
	case notify.Warning:
		return noticeWarningStyle.Render("! " + n.Message)
	case notify.Success:
		return noticeSuccessStyle.Render("✓ " + n.Message)
	default:
		return noticeInfoStyle.Render("· " + n.Message)
	}
}

func (m browserModel) helpLine() string {
	if m.detailOpen {
		return "↑↓ version · enter download · esc back · q quit"
	}
	help := "/ search · ↑↓ move · enter versions · d download · a queue all · n next page · x nsfw · o sort · r resync · q quit"
	if m.isAdmin {
		help += " · p pause · u resume"
	}
	return help
}
