package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/proyectoj/assistant/internal/app"
	"github.com/proyectoj/assistant/internal/assistant"
	"github.com/proyectoj/assistant/internal/state"
)

// RenderResolution formats a resolved endpoint with its source badge and the
// time it was trusted.
func RenderResolution(s Styles, snap state.Snapshot, elapsed time.Duration) string {
	c := snap.Candidate
	var b strings.Builder
	b.WriteString(s.SuccessText.Render("✓"))
	b.WriteString(" ")
	b.WriteString(s.Badge(c.Source.String()).Render(c.Source.String()))
	b.WriteString(" ")
	b.WriteString(s.Text.Render(c.Endpoint.String()))
	if elapsed > 0 {
		b.WriteString(" ")
		b.WriteString(s.FaintText.Render(fmt.Sprintf("(%s)", elapsed.Round(10*time.Millisecond))))
	}
	if !snap.ResolvedAt.IsZero() {
		b.WriteString(" ")
		b.WriteString(s.MutedText.Render("trusted since " + snap.ResolvedAt.Format("15:04:05")))
	}
	return b.String()
}

// RenderError formats a terminal failure.
func RenderError(s Styles, err error) string {
	return s.DangerText.Render("✗") + " " + s.Text.Render(err.Error())
}

// RenderReply formats a chat reply.
func RenderReply(s Styles, reply string) string {
	return s.AccentText.Render("assistant") + s.MutedText.Render(" › ") + s.Text.Render(reply)
}

// RenderStatus formats one monitor status line.
func RenderStatus(s Styles, st app.Status) string {
	label := "online"
	switch {
	case st.IsOffline():
		label = "offline"
	case st.ConsecutiveFailures > 0:
		label = "degraded"
	}

	parts := []string{
		s.FaintText.Render(st.LastChecked.Format("15:04:05")),
		s.Badge(label).Render(label),
	}
	if !st.Endpoint.IsZero() {
		parts = append(parts, s.Text.Render(st.Endpoint.String()), s.InfoText.Render(st.Source.String()))
	}
	if st.LastError != nil {
		parts = append(parts, s.WarningText.Render(st.LastError.Error()))
	}
	return strings.Join(parts, " ")
}

// RenderUpdate formats an update decision.
func RenderUpdate(s Styles, u app.UpdateCheck) string {
	if u.Latest == nil {
		return s.MutedText.Render("no update information")
	}
	if u.Action != assistant.ActionDownload {
		return s.SuccessText.Render("up to date") +
			s.MutedText.Render(fmt.Sprintf(" (installed %d, latest %d %s)", u.Current, u.Latest.VersionCode, u.Latest.VersionName))
	}

	var b strings.Builder
	b.WriteString(s.WarningText.Render("update available"))
	b.WriteString(s.Text.Render(fmt.Sprintf(" %s (%d > %d)", u.Latest.VersionName, u.Latest.VersionCode, u.Current)))
	b.WriteString("\n  ")
	b.WriteString(s.AccentText.Render(u.Latest.APKURL))
	if u.Latest.SHA256 != "" {
		b.WriteString("\n  ")
		b.WriteString(s.FaintText.Render("sha256 " + u.Latest.SHA256))
	}
	if notes := strings.TrimSpace(u.Latest.ReleaseNotes); notes != "" {
		b.WriteString("\n  ")
		b.WriteString(s.MutedText.Render(notes))
	}
	return b.String()
}
