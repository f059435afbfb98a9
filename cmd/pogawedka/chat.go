package main

import (
	"context"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"pogawedka/internal/chat"
)

// activeThread is the session behind the currently mounted chat screen.
// One per mounted view; replaced wholesale on navigation.
var activeThread *chat.Thread

func closeActiveThread() {
	if activeThread != nil {
		activeThread.Close()
		activeThread = nil
	}
}

func makeChatScreen(chatID string) fyne.CanvasObject {
	currentID, err := strconv.ParseInt(ctrl.CurrentUserID(), 10, 64)
	if err != nil {
		logg.Error().Str("user_id", ctrl.CurrentUserID()).Msg("no numeric current user id")
		return makeAuthScreen(true)
	}

	messagesBox := container.NewVBox()
	scroll := container.NewVScroll(messagesBox)

	thread := chat.NewThread(chat.Config{
		BaseURL:     cfg.BaseURL,
		AccessToken: tokens.AccessToken(),
		UserID:      currentID,
		ChatID:      chatID,
		API:         client,
		Log:         logg,
	})
	activeThread = thread

	render := func() {
		msgs := thread.Messages()
		messagesBox.Objects = nil
		if len(msgs) == 0 {
			messagesBox.Add(widget.NewLabel("Brak wiadomości"))
		}
		for _, m := range msgs {
			messagesBox.Add(messageRow(m, currentID))
		}
		messagesBox.Refresh()
		scroll.ScrollToBottom()
	}
	thread.OnUpdate(func() {
		fyne.Do(render)
	})

	go func() {
		if err := thread.Open(context.Background()); err != nil {
			// No retry and no user-facing error; the view stays empty.
			logg.Error().Err(err).Str("chat_id", chatID).Msg("open chat failed")
		}
	}()

	input := widget.NewEntry()
	input.SetPlaceHolder("Napisz wiadomość...")

	send := func() {
		if thread.Send(input.Text) {
			input.SetText("")
		}
	}
	input.OnSubmitted = func(string) { send() }
	sendBtn := widget.NewButton("Wyślij", send)
	sendBtn.Importance = widget.HighImportance

	render()

	return container.NewBorder(
		nil,
		container.NewPadded(container.NewBorder(nil, nil, nil, sendBtn, input)),
		nil, nil,
		container.NewPadded(scroll),
	)
}
