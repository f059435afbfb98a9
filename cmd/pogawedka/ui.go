package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"pogawedka/internal/api"
	"pogawedka/internal/models"
)

// Navigation works by swapping the window content; the active chat
// session, if any, is torn down before every swap.

func showAuth() {
	closeActiveThread()
	window.SetContent(makeAuthScreen(true))
}

func showProfile() {
	closeActiveThread()
	if tokens.AccessToken() == "" {
		ctrl.Logout()
		return
	}
	window.SetContent(withNav(makeProfileScreen()))
}

func showChatList() {
	closeActiveThread()
	if !ctrl.Authenticated() {
		showAuth()
		return
	}
	window.SetContent(withNav(makeChatListScreen()))
}

func showChat(chatID string) {
	closeActiveThread()
	if !ctrl.Authenticated() {
		showAuth()
		return
	}
	window.SetContent(withNav(makeChatScreen(chatID)))
}

func withNav(content fyne.CanvasObject) fyne.CanvasObject {
	bar := container.NewHBox(
		widget.NewButtonWithIcon("Home", theme.HomeIcon(), showProfile),
		widget.NewButtonWithIcon("Profil", theme.AccountIcon(), showProfile),
		widget.NewButtonWithIcon("Chaty", theme.MailComposeIcon(), showChatList),
		layout.NewSpacer(),
		widget.NewButtonWithIcon("Wyloguj", theme.LogoutIcon(), func() {
			ctrl.Logout()
		}),
	)
	return container.NewBorder(
		container.NewVBox(bar, widget.NewSeparator()),
		nil, nil, nil,
		content,
	)
}

// makeAuthScreen shows the login or registration panel plus the switch
// row. The toggle is pure local state; login is the default.
func makeAuthScreen(loginMode bool) fyne.CanvasObject {
	var panel fyne.CanvasObject
	switchHint, switchText := "Masz już konto?", "Zaloguj się"
	if loginMode {
		panel = makeLoginPanel()
		switchHint, switchText = "Nie masz konta?", "Zarejestruj się"
	} else {
		panel = makeRegistrationPanel()
	}

	switchBtn := widget.NewButton(switchText, func() {
		window.SetContent(makeAuthScreen(!loginMode))
	})

	return container.NewCenter(container.NewVBox(
		panel,
		container.NewHBox(widget.NewLabel(switchHint), switchBtn),
	))
}

func makeLoginPanel() fyne.CanvasObject {
	idEntry := widget.NewEntry()
	idEntry.SetPlaceHolder("User ID")

	errorLabel := widget.NewLabel("")
	errorLabel.Wrapping = fyne.TextWrapWord
	errorLabel.Hide()

	loginBtn := widget.NewButton("Zaloguj", func() {
		if err := ctrl.Login(context.Background(), idEntry.Text); err != nil {
			errorLabel.SetText(errorMessage(err, "Coś poszło nie tak przy logowaniu"))
			errorLabel.Show()
			return
		}
		showProfile()
	})
	loginBtn.Importance = widget.HighImportance

	return container.NewVBox(
		widget.NewLabelWithStyle("Logowanie (po ID)", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewSeparator(),
		idEntry,
		errorLabel,
		loginBtn,
	)
}

func makeRegistrationPanel() fyne.CanvasObject {
	firstEntry := widget.NewEntry()
	firstEntry.SetPlaceHolder("Imię")

	surnameEntry := widget.NewEntry()
	surnameEntry.SetPlaceHolder("Nazwisko")

	errorLabel := widget.NewLabel("")
	errorLabel.Wrapping = fyne.TextWrapWord
	errorLabel.Hide()

	registerBtn := widget.NewButton("Zarejestruj się", func() {
		id, err := ctrl.Register(context.Background(), firstEntry.Text, surnameEntry.Text)
		if err != nil {
			errorLabel.SetText(errorMessage(err, "Coś poszło nie tak przy rejestracji"))
			errorLabel.Show()
			return
		}
		window.SetContent(makeRegistrationSuccess(id))
	})
	registerBtn.Importance = widget.HighImportance

	return container.NewVBox(
		widget.NewLabelWithStyle("Rejestracja", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewSeparator(),
		firstEntry,
		surnameEntry,
		errorLabel,
		registerBtn,
	)
}

// makeRegistrationSuccess shows the freshly assigned id. Registration
// never authenticates; the user carries the id to the login panel.
func makeRegistrationSuccess(id int64) fyne.CanvasObject {
	return container.NewCenter(container.NewVBox(
		widget.NewLabelWithStyle("Zarejestrowano pomyślnie!", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabel(fmt.Sprintf("Twoje User ID to: %d", id)),
		widget.NewButton("Przejdź do logowania", func() {
			window.SetContent(makeAuthScreen(true))
		}),
	))
}

func makeProfileScreen() fyne.CanvasObject {
	box := container.NewVBox(widget.NewLabel("Ładowanie…"))
	bearer := tokens.AccessToken()

	go func() {
		profile, err := client.Me(context.Background(), bearer)
		fyne.Do(func() {
			var apiErr *api.Error
			if errors.As(err, &apiErr) && apiErr.SessionInvalid() {
				ctrl.Logout()
				return
			}

			box.Objects = nil
			if err != nil {
				box.Add(widget.NewLabel(errorMessage(err, "Błąd podczas pobierania profilu")))
				box.Refresh()
				return
			}
			box.Add(widget.NewLabelWithStyle(
				fmt.Sprintf("Witaj, %s %s", profile.FirstName, profile.Surname),
				fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
			box.Add(widget.NewButton("Wyloguj", func() {
				ctrl.Logout()
			}))
			box.Refresh()
		})
	}()

	return container.NewPadded(box)
}

func makeChatListScreen() fyne.CanvasObject {
	currentID := ctrl.CurrentUserID()
	list := container.NewVBox()

	go func() {
		users, err := client.Users(context.Background(), tokens.AccessToken())
		if err != nil {
			// No user-facing error state for the contact list.
			logg.Error().Err(err).Msg("fetch users failed")
			return
		}

		visible := excludeSelf(users, currentID)
		fyne.Do(func() {
			for _, u := range visible {
				user := u
				btn := widget.NewButton(fmt.Sprintf("%s %s (#%d)", user.FirstName, user.Surname, user.ID), func() {
					startChat(user.ID)
				})
				btn.Alignment = widget.ButtonAlignLeading
				list.Add(btn)
			}
			list.Refresh()
		})
	}()

	return container.NewBorder(
		container.NewPadded(widget.NewLabelWithStyle("Wybierz użytkownika", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})),
		nil, nil, nil,
		container.NewVScroll(container.NewPadded(list)),
	)
}

// startChat resolves (or creates) the chat with the selected user and
// navigates to it. Failures are logged and nothing moves.
func startChat(otherID int64) {
	me, err := strconv.ParseInt(ctrl.CurrentUserID(), 10, 64)
	if err != nil {
		logg.Error().Str("user_id", ctrl.CurrentUserID()).Msg("no numeric current user id")
		return
	}

	chatID, err := client.GetOrCreateChat(context.Background(), tokens.AccessToken(), me, otherID)
	if err != nil {
		logg.Error().Err(err).Int64("other_id", otherID).Msg("get-or-create failed")
		return
	}
	showChat(strconv.FormatInt(chatID, 10))
}

// excludeSelf drops the entry whose id matches the current user. The
// comparison is by string, matching how the id comes off the token.
func excludeSelf(users []models.User, currentID string) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if strconv.FormatInt(u.ID, 10) == currentID {
			continue
		}
		out = append(out, u)
	}
	return out
}
