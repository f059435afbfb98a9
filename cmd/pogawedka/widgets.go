package main

import (
	"errors"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"pogawedka/internal/api"
	"pogawedka/internal/models"
)

// messageRow renders one message. Outgoing messages (sent by the
// current user) sit on the right, incoming on the left.
func messageRow(m models.Message, currentUserID int64) fyne.CanvasObject {
	meta := canvas.NewText(formatSentAt(m.SentAt), color.RGBA{R: 0x6b, G: 0x6b, B: 0x6b, A: 0xff})
	meta.TextSize = 10

	body := widget.NewLabel(m.Content)
	body.Wrapping = fyne.TextWrapWord

	row := container.NewVBox(meta, body)
	if m.SenderID == currentUserID {
		return container.NewHBox(layout.NewSpacer(), row)
	}
	return container.NewHBox(row, layout.NewSpacer())
}

// sentAtLayouts covers the timestamp shapes the backend is known to
// emit: zoned RFC 3339 and the bare LocalDateTime form.
var sentAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// formatSentAt turns the wire timestamp into a local time-of-day. A
// timestamp without a zone is taken as local time. When nothing parses
// the raw string comes back as-is.
func formatSentAt(sentAt string) string {
	for _, layout := range sentAtLayouts {
		if ts, err := time.ParseInLocation(layout, sentAt, time.Local); err == nil {
			return ts.Local().Format("15:04")
		}
	}
	return sentAt
}

// errorMessage picks what the form shows: the server-provided detail
// when there is one, otherwise the Polish fallback.
func errorMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message == "" {
			return fallback
		}
		return apiErr.Message
	}
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
