package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// CustomTheme swaps the default fonts for the Go fonts, the same family the
// countdown digits are drawn in.
type CustomTheme struct {
	fyne.Theme
	regular fyne.Resource
	bold    fyne.Resource
	mono    fyne.Resource
}

// NewCustomTheme creates the theme from the given font resources.
func NewCustomTheme(regularFont, boldFont, monoFont fyne.Resource) fyne.Theme {
	return &CustomTheme{Theme: theme.DefaultTheme(), regular: regularFont, bold: boldFont, mono: monoFont}
}

// NewGoFontTheme builds the theme from the Go fonts bundled in x/image.
func NewGoFontTheme() fyne.Theme {
	return NewCustomTheme(
		fyne.NewStaticResource("Go-Regular.ttf", goregular.TTF),
		fyne.NewStaticResource("Go-Bold.ttf", gobold.TTF),
		fyne.NewStaticResource("Go-Mono.ttf", gomono.TTF),
	)
}

// Font returns the font for the given style.
func (t *CustomTheme) Font(style fyne.TextStyle) fyne.Resource {
	switch {
	case style.Monospace:
		return t.mono
	case style.Bold:
		return t.bold
	}
	return t.regular
}
