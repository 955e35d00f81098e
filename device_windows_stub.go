//go:build !windows

package main

func listMountedWindows() []mountedVol { return nil }

func normalizeWindowsDevicePath(p string) string { return p }
