package app

import "github.com/dkeye/VoiceRoom/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Traffic classes the relay fans out.
type Traffic int

const (
	TrafficChat Traffic = iota
	TrafficAudio
	TrafficControl
)

type Policy interface {
	OnBackPressure(traffic Traffic, member core.Target) BackpressureAction
}

// SimplePolicy drops frames for a slow reader. Audio delivery is best-effort and the
// connection stays up, a client that falls behind re-syncs on the next first chunk.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(Traffic, core.Target) BackpressureAction {
	return DropFrame
}

// StrictPolicy closes connections that cannot keep up with chat or control traffic.
type StrictPolicy struct{}

func (StrictPolicy) OnBackPressure(traffic Traffic, _ core.Target) BackpressureAction {
	if traffic == TrafficAudio {
		return DropFrame
	}
	return KickMember
}

// PolicyByName maps a config value to a Policy.
func PolicyByName(name string) Policy {
	if name == "strict" {
		return StrictPolicy{}
	}
	return SimplePolicy{}
}
