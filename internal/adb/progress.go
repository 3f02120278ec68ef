package adb

import (
	"regexp"
	"strconv"
)

// adb clients attached to a tty rewrite progress in place as
// "[ 42%] /sdcard/DCIM/photo.jpg", carriage-return separated.
var progressRe = regexp.MustCompile(`\[\s*(\d+)%\]`)

// ParsePercent extracts the completion percentage from one line of adb
// transfer output. The second return value is false for non-progress lines.
func ParsePercent(line string) (int, bool) {
	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.Atoi(m[1])
	if err != nil || pct < 0 || pct > 100 {
		return 0, false
	}
	return pct, true
}

// ClassifyOutput maps adb diagnostic text to an error kind so callers that
// drive adb as a long-running child process (transfers) can classify
// failures without assuming the text format themselves.
func ClassifyOutput(out string) Kind {
	return classifyOutput(out)
}
