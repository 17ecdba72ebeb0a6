package main

import (
	"ScanBooth/camera"
	"ScanBooth/capture"
	"ScanBooth/phase"
	"ScanBooth/sequence"
	"ScanBooth/timer"
	"context"
	"fmt"
	"log"
)

// headlessLimit bounds the number of virtual callbacks one run may fire.
const headlessLimit = 1 << 24

// runHeadless renders one full run against recorded frames on virtual time
// and saves the result into outDir. It returns the written path.
func runHeadless(cfg timer.ScanConfig, replayDir, outDir string, dir sequence.Direction) (string, error) {
	clock := timer.NewVirtual()
	replay, err := camera.LoadReplay(replayDir, cfg.PreviewFPS, clock.Now)
	if err != nil {
		return "", err
	}
	log.Printf("replaying %d frames from %s", replay.Len(), replayDir)

	opts, err := phase.OptionsFromConfig(cfg, replay, clock)
	if err != nil {
		return "", err
	}
	var runErr error
	opts.Hooks.Error = func(err error) { runErr = err }

	ctrl, err := phase.New(opts)
	if err != nil {
		return "", err
	}
	if err := ctrl.Start(context.Background(), dir); err != nil {
		return "", err
	}
	fired := clock.RunUntilIdle(headlessLimit)
	if runErr != nil {
		return "", runErr
	}
	if ctrl.State() != phase.StateDone {
		return "", fmt.Errorf("run stopped in state %s after %d callbacks", ctrl.State(), fired)
	}
	log.Printf("%s scan finished at %s virtual", dir, timer.FormatTime(clock.Now()))

	return capture.Save(outDir, ctrl.Frame())
}
