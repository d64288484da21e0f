//go:build gui

package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/metcalfc/lector/internal/logger"
	"github.com/metcalfc/lector/internal/render"
	"github.com/metcalfc/lector/internal/session"
	"github.com/metcalfc/lector/internal/settings"
	"github.com/metcalfc/lector/internal/token"
)

var focusColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}

// textColor is the word color for a theme.
func textColor(theme string) color.Color {
	if theme == settings.ThemeLight {
		return color.Black
	}
	return color.White
}

// present opens the document in a window. Without a document the most
// recently read one is opened.
func (c *cli) present(ctx context.Context, rs readerSetup) error {
	id := rs.openID
	if id == "" {
		docs, err := rs.store.ListDocuments(ctx)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return errors.New("library is empty: pass a file to read")
		}
		id = docs[0].ID
	}
	doc, err := rs.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	sess := session.Open(doc, rs.app, rs.voice, session.Deps{
		Store:            rs.store,
		Engine:           rs.engine,
		Lookup:           rs.lookup,
		Saver:            rs.saver,
		Glossary:         rs.glossary,
		Log:              logger.Component(c.log, "session"),
		ProgressInterval: c.cfg.ProgressInterval,
		Language:         c.cfg.Language,
	})
	var closeOnce sync.Once
	closeSession := func() {
		closeOnce.Do(func() {
			if err := sess.Close(context.Background()); err != nil {
				c.log.Error().Err(err).Msg("close session")
			}
		})
	}
	defer closeSession()

	a := app.New()
	w := a.NewWindow("lector - " + doc.Title)

	statusLabel := widget.NewLabel("")
	statusLabel.Alignment = fyne.TextAlignCenter
	controlsLabel := widget.NewLabel("SPACE: play  ↑/↓: speed  +/-: font  ←/→: sentence  M: mode  V: voice  T: TOC  F: fullscreen  Q: quit")
	controlsLabel.Alignment = fyne.TextAlignCenter
	wordContainer := container.NewStack()

	toc := sess.TOC()
	var tocPanel *container.Split

	updateDisplay := func() {
		canvasWidth := w.Canvas().Size().Width
		if canvasWidth <= 0 {
			canvasWidth = 800
		}
		wordContainer.Objects = []fyne.CanvasObject{c.guiBody(sess, canvasWidth)}
		wordContainer.Refresh()
		statusLabel.SetText(guiStatus(sess))
	}

	readingContent := container.NewBorder(statusLabel, controlsLabel, nil, nil, wordContainer)
	content := fyne.CanvasObject(readingContent)
	if len(toc) > 0 {
		tocList := widget.NewList(
			func() int { return len(toc) },
			func() fyne.CanvasObject {
				return container.NewVBox(widget.NewLabel("Title"), widget.NewLabel("Preview"))
			},
			func(id widget.ListItemID, obj fyne.CanvasObject) {
				entry := toc[id]
				vbox := obj.(*fyne.Container)
				indent := strings.Repeat("  ", entry.Level)
				vbox.Objects[0].(*widget.Label).SetText(indent + entry.Title)
				vbox.Objects[1].(*widget.Label).SetText(indent + entry.Preview)
			},
		)
		tocList.OnSelected = func(id widget.ListItemID) {
			sess.Playback().Seek(toc[id].WordIndex)
			tocPanel.Leading.Hide()
			tocPanel.Refresh()
		}
		tocContainer := container.NewBorder(widget.NewLabel("Table of Contents"), nil, nil, nil, tocList)
		tocContainer.Hide()
		tocPanel = container.NewHSplit(tocContainer, readingContent)
		tocPanel.Offset = 0.33
		content = tocPanel
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case _, ok := <-sess.Events():
				if !ok {
					return
				}
				fyne.Do(updateDisplay)
			}
		}
	}()

	quit := func() {
		closeSession()
		a.Quit()
	}

	pb := sess.Playback()
	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeySpace:
			pb.Toggle()
		case fyne.KeyUp:
			sess.AdjustWPM(50)
		case fyne.KeyDown:
			sess.AdjustWPM(-50)
		case fyne.KeyLeft:
			pb.PrevSentence()
		case fyne.KeyRight:
			pb.NextSentence()
		case fyne.KeyF:
			w.SetFullScreen(!w.FullScreen())
		case fyne.KeyQ, fyne.KeyEscape:
			quit()
			return
		}
		updateDisplay()
	})
	w.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case 't', 'T':
			if tocPanel == nil {
				return
			}
			if tocPanel.Leading.Visible() {
				tocPanel.Leading.Hide()
			} else {
				pb.Pause()
				tocPanel.Leading.Show()
			}
			tocPanel.Refresh()
		case 'm', 'M':
			sess.CycleMode()
		case 'v', 'V':
			sess.ToggleVoice()
		case '+', '=':
			sess.AdjustFontSize(4)
		case '-':
			sess.AdjustFontSize(-4)
		}
		updateDisplay()
	})

	w.Resize(fyne.NewSize(800, 600))
	w.SetContent(content)
	w.SetOnClosed(func() {
		close(done)
		closeSession()
	})

	go func() {
		time.Sleep(100 * time.Millisecond)
		fyne.Do(updateDisplay)
	}()

	w.ShowAndRun()
	return nil
}

func guiStatus(sess *session.Session) string {
	pb := sess.Playback()
	app := sess.App()
	playing := "PAUSED"
	if pb.State().Playing() {
		playing = "PLAYING"
	}
	voice := ""
	if sess.Voice().EnabledFor(app.Mode) {
		voice = " | voice"
	}
	return fmt.Sprintf("%s | Word %d/%d | %d WPM | %s%s",
		app.Mode, pb.VisualIndex()+1, pb.Len(), app.Current().WPM, playing, voice)
}

// guiBody draws the current token in the active mode. Flowing modes show
// the sentence around it.
func (c *cli) guiBody(sess *session.Session, width float32) fyne.CanvasObject {
	tokens := sess.Tokens()
	i := sess.Playback().VisualIndex()
	ms := sess.App().Current()
	size := float32(ms.FontSize)
	fg := textColor(sess.App().Theme)

	switch sess.App().Mode {
	case settings.ModeSpritz, settings.ModeWheel:
		return createWordDisplay(tokens[i], size, width, fg)
	case settings.ModeViral:
		r := render.ViralChunk(tokens, i, ms.ChunkSize, ms.SentenceChunks)
		return centeredText(strings.Join(words(tokens, r), " "), size, fg)
	default:
		r := token.SentenceRange(tokens, i)
		label := widget.NewLabel(strings.Join(words(tokens, r), " "))
		label.Wrapping = fyne.TextWrapWord
		return label
	}
}

func words(tokens []string, r token.Range) []string {
	var out []string
	for k := r.Start; k <= r.End && k < len(tokens); k++ {
		if !token.IsBreak(tokens[k]) {
			out = append(out, tokens[k])
		}
	}
	return out
}

func centeredText(s string, size float32, fg color.Color) fyne.CanvasObject {
	t := canvas.NewText(s, fg)
	t.TextSize = size
	t.TextStyle.Bold = true
	t.Alignment = fyne.TextAlignCenter
	return container.NewCenter(t)
}

// createWordDisplay places the pivot letter at the horizontal center.
func createWordDisplay(word string, fontSize float32, windowWidth float32, fg color.Color) *fyne.Container {
	l := render.Spritz(word, 0)

	beforeText := canvas.NewText(l.Before, fg)
	beforeText.TextSize = fontSize
	beforeText.TextStyle.Bold = true

	focusText := canvas.NewText(l.Focus, focusColor)
	focusText.TextSize = fontSize
	focusText.TextStyle.Bold = true

	afterText := canvas.NewText(l.After, fg)
	afterText.TextSize = fontSize
	afterText.TextStyle.Bold = true

	centerX := windowWidth / 2
	beforeX := max(centerX-beforeText.MinSize().Width, 0)
	afterX := centerX + focusText.MinSize().Width

	c := &fyne.Container{
		Layout:  &centerVerticalLayout{},
		Objects: []fyne.CanvasObject{beforeText, focusText, afterText},
	}
	beforeText.Move(fyne.NewPos(beforeX, 0))
	focusText.Move(fyne.NewPos(centerX, 0))
	afterText.Move(fyne.NewPos(afterX, 0))
	return c
}

// centerVerticalLayout centers children vertically and keeps their X.
type centerVerticalLayout struct{}

func (l *centerVerticalLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var maxH float32
	for _, o := range objects {
		maxH = max(maxH, o.MinSize().Height)
	}
	return fyne.NewSize(0, maxH)
}

func (l *centerVerticalLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	y := max((size.Height-l.MinSize(objects).Height)/2, 0)
	for _, o := range objects {
		o.Move(fyne.NewPos(o.Position().X, y))
		o.Resize(o.MinSize())
	}
}
