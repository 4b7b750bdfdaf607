package devicecfg

import (
	"slices"
	"strings"
)

// allowedCommands lists the CLI verbs the send-command route may issue.
// baudRate is excluded: switching rates outside Upload would leave the
// host port at the old rate.
var allowedCommands = []string{
	// Sensor control
	"sensorStop",
	"sensorStart",
	"flushCfg",
	"version",
	"help",

	// Front end
	"dfeDataOutputMode",
	"channelCfg",
	"adcCfg",
	"adcbufCfg",
	"lowPower",
	"profileCfg",
	"chirpCfg",
	"frameCfg",

	// Detection
	"dynamicRACfarCfg",
	"staticRACfarCfg",
	"dynamicRangeAngleCfg",
	"dynamic2DAngleCfg",
	"staticRangeAngleCfg",
	"antGeometry0",
	"antGeometry1",
	"antPhaseRot",
	"fovCfg",
	"compRangeBiasAndRxChanPhase",

	// Tracker
	"staticBoundaryBox",
	"boundaryBox",
	"presenceBoundaryBox",
	"sensorPosition",
	"gatingParam",
	"stateParam",
	"allocationParam",
	"maxAcceleration",
	"trackingCfg",
}

// commandAllowed reports whether the first word of cmd is an allowed verb.
func commandAllowed(cmd string) bool {
	verb, _, _ := strings.Cut(strings.TrimSpace(cmd), " ")
	return slices.Contains(allowedCommands, verb)
}
