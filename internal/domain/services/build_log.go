package services

import (
	"path/filepath"
	"strings"
	"time"
)

// ErrorExcerptLength is how many trailing characters of a failed build's
// output are echoed to the user
const ErrorExcerptLength = 400

// BuildLogTimeLayout formats the timestamp part of a log file name
const BuildLogTimeLayout = "20060102_150405"

// BuildLogName returns "<project>_<jdk>_<tool>_<YYYYMMDD_HHMMSS>.log" using
// the base names of the three directories
func BuildLogName(projectDir, jdkRoot, toolRoot string, at time.Time) string {
	parts := []string{
		filepath.Base(projectDir),
		filepath.Base(jdkRoot),
		filepath.Base(toolRoot),
		at.Format(BuildLogTimeLayout),
	}
	return strings.Join(parts, "_") + ".log"
}

// ErrorExcerpt returns the last limit characters of stderr, or of stdout when
// stderr is blank
func ErrorExcerpt(stderr, stdout string, limit int) string {
	text := stderr
	if strings.TrimSpace(text) == "" {
		text = stdout
	}
	return Tail(text, limit)
}

// Tail returns the last n runes of s
func Tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
