//go:build !darwin

package main

func findDarwinDeviceForMount(_ string) (device string, mountpoint string) { return "", "" }

func listMountedDarwin() []mountedVol { return nil }
