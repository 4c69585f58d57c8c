// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build linux

package wayland

import "unsafe"

// wlr-layer-shell-unstable-v1 is not part of libwayland-client, so its
// wl_interface descriptors cannot be dlsym'd; they are built here by hand,
// mirroring what wayland-scanner private-code would emit. All backing
// storage lives in package-level variables so the C side can read it for
// the life of the process.

// Request and event opcodes for zwlr_layer_shell_v1.
const (
	layerShellGetLayerSurface = 0
	layerShellDestroy         = 1
)

// Request opcodes for zwlr_layer_surface_v1.
const (
	layerSurfaceSetSize                  = 0
	layerSurfaceSetAnchor                = 1
	layerSurfaceSetExclusiveZone         = 2
	layerSurfaceSetMargin                = 3
	layerSurfaceSetKeyboardInteractivity = 4
	layerSurfaceGetPopup                 = 5
	layerSurfaceAckConfigure             = 6
	layerSurfaceDestroy                  = 7
)

// Layer values for zwlr_layer_shell_v1.get_layer_surface.
const layerBackground = 0

// Anchor bits for zwlr_layer_surface_v1.set_anchor.
const (
	anchorTop    = 1
	anchorBottom = 2
	anchorLeft   = 4
	anchorRight  = 8
	anchorAll    = anchorTop | anchorBottom | anchorLeft | anchorRight
)

// Request opcodes for core interfaces used here.
const (
	displayGetRegistry      = 1
	registryBind            = 0
	compositorCreateSurface = 0
	surfaceDestroy          = 0
	surfaceCommit           = 6
	seatGetPointer          = 0
)

var (
	layerShellInterface   wlInterface
	layerSurfaceInterface wlInterface

	// Pinned name/signature strings and type arrays for the hand-built
	// interfaces.
	layerShellNameStr   = cStr("zwlr_layer_shell_v1")
	layerSurfaceNameStr = cStr("zwlr_layer_surface_v1")

	strGetLayerSurface = cStr("get_layer_surface")
	strDestroy         = cStr("destroy")
	strSetSize         = cStr("set_size")
	strSetAnchor       = cStr("set_anchor")
	strSetExclusive    = cStr("set_exclusive_zone")
	strSetMargin       = cStr("set_margin")
	strSetKeyboard     = cStr("set_keyboard_interactivity")
	strGetPopup        = cStr("get_popup")
	strAckConfigure    = cStr("ack_configure")
	strConfigure       = cStr("configure")
	strClosed          = cStr("closed")

	sigGetLayerSurface = cStr("no?ous")
	sigEmpty           = cStr("")
	sigUU              = cStr("uu")
	sigU               = cStr("u")
	sigI               = cStr("i")
	sigIIII            = cStr("iiii")
	sigO               = cStr("o")
	sigUUU             = cStr("uuu")

	// nullTypes serves every message whose arguments carry no interface.
	nullTypes [8]uintptr

	getLayerSurfaceTypes [5]uintptr

	layerShellRequests   [2]wlMessage
	layerSurfaceRequests [8]wlMessage
	layerSurfaceEvents   [2]wlMessage
)

// initLayerShellInterfaces fills in the descriptor tables. Must run after
// the core interface symbols have been resolved.
func initLayerShellInterfaces() {
	getLayerSurfaceTypes = [5]uintptr{
		uintptr(unsafe.Pointer(&layerSurfaceInterface)), // id: new zwlr_layer_surface_v1
		ifaceSurface, // surface: wl_surface
		ifaceOutput,  // output: wl_output (nullable)
		0,            // layer: uint
		0,            // namespace: string
	}

	layerShellRequests = [2]wlMessage{
		{&strGetLayerSurface[0], &sigGetLayerSurface[0], &getLayerSurfaceTypes[0]},
		{&strDestroy[0], &sigEmpty[0], &nullTypes[0]},
	}

	layerShellInterface = wlInterface{
		name:        &layerShellNameStr[0],
		version:     1,
		methodCount: int32(len(layerShellRequests)),
		methods:     &layerShellRequests[0],
		eventCount:  0,
		events:      nil,
	}

	layerSurfaceRequests = [8]wlMessage{
		{&strSetSize[0], &sigUU[0], &nullTypes[0]},
		{&strSetAnchor[0], &sigU[0], &nullTypes[0]},
		{&strSetExclusive[0], &sigI[0], &nullTypes[0]},
		{&strSetMargin[0], &sigIIII[0], &nullTypes[0]},
		{&strSetKeyboard[0], &sigU[0], &nullTypes[0]},
		{&strGetPopup[0], &sigO[0], &nullTypes[0]}, // xdg_popup, never issued
		{&strAckConfigure[0], &sigU[0], &nullTypes[0]},
		{&strDestroy[0], &sigEmpty[0], &nullTypes[0]},
	}

	layerSurfaceEvents = [2]wlMessage{
		{&strConfigure[0], &sigUUU[0], &nullTypes[0]},
		{&strClosed[0], &sigEmpty[0], &nullTypes[0]},
	}

	layerSurfaceInterface = wlInterface{
		name:        &layerSurfaceNameStr[0],
		version:     1,
		methodCount: int32(len(layerSurfaceRequests)),
		methods:     &layerSurfaceRequests[0],
		eventCount:  int32(len(layerSurfaceEvents)),
		events:      &layerSurfaceEvents[0],
	}
}
