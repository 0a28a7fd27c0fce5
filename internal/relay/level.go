package relay

import (
	"fmt"
	"strings"
)

// LogLevel selects how much of each plain HTTP exchange is logged. Levels are
// ordered: everything a level emits is also emitted by every higher level.
type LogLevel int

const (
	// LevelNone emits nothing.
	LevelNone LogLevel = iota
	// LevelURI emits the request line, the response status and the response
	// latency.
	LevelURI
	// LevelURIHeaders additionally emits the full header sets in both
	// directions.
	LevelURIHeaders
	// LevelURIHeadersBody additionally emits each request body chunk as it is
	// consumed.
	LevelURIHeadersBody
)

// ParseLogLevel converts a config/flag string into a LogLevel.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return LevelNone, nil
	case "uri":
		return LevelURI, nil
	case "uri-headers":
		return LevelURIHeaders, nil
	case "uri-headers-body":
		return LevelURIHeadersBody, nil
	}
	return LevelNone, fmt.Errorf("unknown http log level: %q (valid: none, uri, uri-headers, uri-headers-body)", s)
}

func (l LogLevel) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelURI:
		return "uri"
	case LevelURIHeaders:
		return "uri-headers"
	case LevelURIHeadersBody:
		return "uri-headers-body"
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}
