package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/spacecrew/btscan/pkg/discovery"
)

var (
	pendingColor  = color.New(color.FgYellow)
	fallbackColor = color.New(color.Faint)
	errorColor    = color.New(color.FgRed)
)

// printDevices writes the device list followed by the summary footer.
func printDevices(w io.Writer, snap discovery.Snapshot) {
	if len(snap.Devices) == 0 {
		fmt.Fprintln(w, "No device found")
	}
	width := 0
	for _, device := range snap.Devices {
		width = max(width, len(device.Address))
	}
	for i, device := range snap.Devices {
		fmt.Fprintf(w, "%3d. %s%s  ", i+1, device.Address, strings.Repeat(" ", width-len(device.Address)))
		switch {
		case device.NameResolutionPending:
			pendingColor.Fprintln(w, device.DisplayName)
		case device.DisplayName == discovery.FallbackName:
			fallbackColor.Fprintln(w, device.DisplayName)
		default:
			fmt.Fprintln(w, device.DisplayName)
		}
	}
	fmt.Fprintf(w, "found %d devices\n", len(snap.Devices))
	fmt.Fprintln(w, "connected to (0) devices")
}

func printState(w io.Writer, snap discovery.Snapshot) {
	fmt.Fprintf(w, "%s (scan %d, %d devices, %d names pending)\n", snap.State, snap.Generation, len(snap.Devices), snap.Pending())
	if snap.Err != nil {
		errorColor.Fprintf(w, "Last error: %s\n", snap.Err)
	}
}
