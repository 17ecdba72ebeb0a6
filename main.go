package main

import (
	"ScanBooth/camera"
	"ScanBooth/sequence"
	"ScanBooth/timer"
	"ScanBooth/ui"
	"context"
	"embed"
	"flag"
	"log"
	"strings"

	"fyne.io/fyne/v2/app"
)

//go:embed assets/*
var content embed.FS

var (
	flagDevice    = flag.String("dev", "", "V4L2 device to use instead of probing /dev/video*")
	flagSource    = flag.String("source", "", "comma-separated MJPEG stream URLs to use instead of local cameras")
	flagHTTP      = flag.String("http", "", "serve the remote control API on this address, e.g. :8080")
	flagHeadless  = flag.Bool("headless", false, "render one run from -replay without opening a window")
	flagReplay    = flag.String("replay", "", "directory of recorded JPEG frames for -headless")
	flagOut       = flag.String("out", ".", "output directory for -headless")
	flagDirection = flag.String("direction", "horizontal", "scan direction for -headless: horizontal or vertical")
)

func main() {
	flag.Parse()

	cfg, err := timer.LoadScanConfig(content)
	if err != nil {
		log.Printf("Using default scan config: %v", err)
		cfg = timer.DefaultScanConfig()
	}

	if *flagHeadless {
		dir, err := sequence.ParseDirection(*flagDirection)
		if err != nil {
			log.Fatal(err)
		}
		path, err := runHeadless(cfg, *flagReplay, *flagOut, dir)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s", path)
		return
	}

	fyneApp := app.New()
	fyneApp.Settings().SetTheme(ui.NewGoFontTheme())

	a, err := NewAppManager(cfg, newSession(cfg))
	if err != nil {
		log.Fatal(err)
	}

	w, view := ui.CreateMainWindow(a, fyneApp)
	a.SetView(w, view)
	a.Acquire()

	ctx, cancel := context.WithCancel(context.Background())
	w.SetOnClosed(func() {
		cancel()
	})

	go a.preview(ctx)
	if *flagHTTP != "" {
		go a.serveHTTP(ctx, *flagHTTP)
	}

	w.ShowAndRun()
	a.Shutdown()
}

// newSession picks the camera backend from the flags.
func newSession(cfg timer.ScanConfig) *camera.Session {
	switch {
	case *flagSource != "":
		return camera.NewSession(camera.Fixed(strings.Split(*flagSource, ",")...), camera.MJPEGOpener{}, cfg.CaptureWidth, cfg.CaptureHeight)
	case *flagDevice != "":
		return camera.NewSession(camera.Fixed(*flagDevice), camera.V4L2Opener{}, cfg.CaptureWidth, cfg.CaptureHeight)
	}
	return camera.NewSession(camera.Enumerate, camera.V4L2Opener{}, cfg.CaptureWidth, cfg.CaptureHeight)
}
