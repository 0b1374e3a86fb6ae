package model

import (
	"errors"
	"strings"
)

type Platform string

const (
	PlatformSteam       Platform = "steam"
	PlatformEpic        Platform = "epic"
	PlatformGOG         Platform = "gog"
	PlatformPlayStation Platform = "playstation"
	PlatformOrigin      Platform = "origin"
	PlatformUplay       Platform = "uplay"
	PlatformURL         Platform = "url"
)

var ErrInvalidPlatform = errors.New("invalid platform")

var platforms = []Platform{
	PlatformSteam,
	PlatformEpic,
	PlatformGOG,
	PlatformPlayStation,
	PlatformOrigin,
	PlatformUplay,
	PlatformURL,
}

// Platforms returns every supported platform.
func Platforms() []Platform {
	out := make([]Platform, len(platforms))
	copy(out, platforms)
	return out
}

// ParsePlatform normalizes s and checks it against the known platforms.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrInvalidPlatform
	}
	return p, nil
}

func (p Platform) Valid() bool {
	for _, known := range platforms {
		if p == known {
			return true
		}
	}
	return false
}

func (p Platform) String() string { return string(p) }
