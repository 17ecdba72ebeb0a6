package ui

import (
	"ScanBooth/capture"
	"ScanBooth/control"
	"ScanBooth/i18n"
	"ScanBooth/sequence"
	"ScanBooth/timer"
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// deleteURI removes a file the save dialog created.
var deleteURI = storage.Delete

type App interface {
	EnqueueCommand(cmd control.Command)
	HandleKeyRune(rune)
}

// View holds the widgets the application updates while a run progresses.
// Its setters may be called from any goroutine.
type View struct {
	window  fyne.Window
	preview *canvas.Image
	scan    *canvas.Image
	status  *canvas.Text

	ScanVertical   *widget.Button
	ScanHorizontal *widget.Button
	Download       *widget.Button
	Flip           *widget.Button
}

// send enqueues cmd and reports a failed reply whenever the loop answers.
// Button handlers run on the fyne goroutine and never wait for the loop.
func (v *View) send(a App, cmd control.Command) {
	reply := make(chan error, 1)
	cmd.Reply = reply
	a.EnqueueCommand(cmd)
	go func() {
		v.report(<-reply)
	}()
}

// save hands wc to the loop for export. The file the dialog created is
// removed again when the export fails.
func (v *View) save(a App, wc fyne.URIWriteCloser) {
	uri := wc.URI()
	reply := make(chan error, 1)
	a.EnqueueCommand(control.Command{Type: control.CmdDownload, Writer: wc, Reply: reply})
	go func() {
		if err := <-reply; err != nil {
			if derr := deleteURI(uri); derr != nil {
				fyne.LogError("removing "+uri.String(), derr)
			}
			v.ShowError(err)
			return
		}
		v.SetStatus(i18n.T("Saved") + ": " + uri.Path())
	}()
}

func newImage(w, h float32) *canvas.Image {
	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleFastest
	img.SetMinSize(fyne.NewSize(w, h))
	return img
}

// BuildButtons creates the control row. Download and Flip start hidden.
func BuildButtons(a App, v *View) fyne.CanvasObject {
	v.ScanVertical = widget.NewButton(i18n.T("Scan vertical"), func() {
		v.send(a, control.Command{Type: control.CmdScan, Direction: sequence.Vertical})
	})
	v.ScanHorizontal = widget.NewButton(i18n.T("Scan horizontal"), func() {
		v.send(a, control.Command{Type: control.CmdScan, Direction: sequence.Horizontal})
	})

	v.Download = widget.NewButton(i18n.T("Download"), func() {
		d := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil {
				v.ShowError(err)
				return
			}
			if wc == nil {
				return // canceled
			}
			v.save(a, wc)
		}, v.window)
		d.SetFileName(capture.FileName)
		d.SetFilter(storage.NewExtensionFileFilter([]string{".jpg", ".jpeg"}))
		d.Show()
	})
	v.Download.Hide()

	v.Flip = widget.NewButton(i18n.T("Flip camera"), func() {
		v.send(a, control.Command{Type: control.CmdFlip})
	})
	v.Flip.Hide()

	gap := canvas.NewRectangle(color.Transparent)
	gap.SetMinSize(fyne.NewSize(timer.ButtonGap, 0))

	return container.NewHBox(
		layout.NewSpacer(),
		v.ScanVertical,
		v.ScanHorizontal,
		gap,
		v.Download,
		v.Flip,
		layout.NewSpacer(),
	)
}

func CreateMainWindow(a App, fyneApp fyne.App) (fyne.Window, *View) {
	title := fyneApp.Metadata().Name
	if title == "" {
		title = "ScanBooth"
	}
	w := fyneApp.NewWindow(title)

	v := &View{window: w}
	v.preview = newImage(timer.PreviewWidth, timer.PreviewHeight)
	v.scan = newImage(timer.PreviewWidth, timer.PreviewHeight)
	v.status = canvas.NewText(i18n.T("No camera feed"), theme.Color(theme.ColorNameForeground))
	v.status.TextSize = timer.FontSizeStatus
	v.status.Alignment = fyne.TextAlignCenter

	buttons := BuildButtons(a, v)

	// tapping the live feed flips the camera when there is another one
	previewTap := NewTappableContainer(v.preview, func() {
		if !v.Flip.Hidden {
			v.Flip.Tapped(&fyne.PointEvent{})
		}
	}, nil)

	frames := container.NewGridWithColumns(2, previewTap, v.scan)

	w.Canvas().SetOnTypedRune(a.HandleKeyRune)

	bottomSpacer := canvas.NewRectangle(color.Transparent)
	bottomSpacer.SetMinSize(fyne.NewSize(0, timer.ButtonGap))

	w.SetContent(container.NewVBox(
		frames,
		v.status,
		bottomSpacer,
		buttons,
	))
	w.Resize(fyne.NewSize(2*timer.PreviewWidth+3*timer.ButtonGap, timer.PreviewHeight+120))
	return w, v
}

func (v *View) report(err error) {
	if err != nil {
		v.ShowError(err)
	}
}

// ShowError logs err and shows it in a dialog.
func (v *View) ShowError(err error) {
	fyne.LogError("scanbooth", err)
	fyne.Do(func() {
		v.status.Text = i18n.T("Error") + ": " + err.Error()
		v.status.Refresh()
		dialog.ShowError(err, v.window)
	})
}

// SetPreview shows the latest camera frame.
func (v *View) SetPreview(img image.Image) {
	if img == nil {
		return
	}
	fyne.Do(func() {
		v.preview.Image = img
		v.preview.Refresh()
	})
}

// SetScan shows the latest rendered surface.
func (v *View) SetScan(img image.Image) {
	fyne.Do(func() {
		v.scan.Image = img
		v.scan.Refresh()
	})
}

func (v *View) SetStatus(text string) {
	fyne.Do(func() {
		v.status.Text = text
		v.status.Refresh()
	})
}

// Status returns the text of the status line.
func (v *View) Status() string {
	var text string
	fyne.DoAndWait(func() { text = v.status.Text })
	return text
}

func (v *View) SetDownloadVisible(visible bool) {
	fyne.Do(func() {
		setVisible(v.Download, visible)
	})
}

func (v *View) SetFlipVisible(visible bool) {
	fyne.Do(func() {
		setVisible(v.Flip, visible)
	})
}

func setVisible(o fyne.CanvasObject, visible bool) {
	if visible {
		o.Show()
	} else {
		o.Hide()
	}
}

type TappableContainer struct {
	widget.BaseWidget
	Content           fyne.CanvasObject
	OnTappedPrimary   func()
	OnTappedSecondary func(e *fyne.PointEvent)
}

func NewTappableContainer(c fyne.CanvasObject, onP func(), onS func(e *fyne.PointEvent)) *TappableContainer {
	t := &TappableContainer{
		Content:           c,
		OnTappedPrimary:   onP,
		OnTappedSecondary: onS,
	}
	t.ExtendBaseWidget(t)
	return t
}

func (t *TappableContainer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.Content)
}

func (t *TappableContainer) Tapped(_ *fyne.PointEvent) {
	if t.OnTappedPrimary != nil {
		t.OnTappedPrimary()
	}
}

func (t *TappableContainer) TappedSecondary(e *fyne.PointEvent) {
	if t.OnTappedSecondary != nil {
		t.OnTappedSecondary(e)
	}
}
