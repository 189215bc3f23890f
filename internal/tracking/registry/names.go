package registry

import (
	"fmt"
	"strconv"
	"strings"
)

// UniqueName returns name unchanged when taken reports it free. Otherwise
// any ".NNN" suffix is stripped and the next free numbered variant is
// returned, e.g. "Track" becomes "Track.001".
func UniqueName(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	base, number := splitNameNum(name)
	for {
		number++
		candidate := fmt.Sprintf("%s.%03d", base, number)
		if !taken(candidate) {
			return candidate
		}
	}
}

func splitNameNum(name string) (string, int) {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 || dot == len(name)-1 {
		return name, 0
	}
	n, err := strconv.Atoi(name[dot+1:])
	if err != nil || n < 0 || strings.ContainsAny(name[dot+1:], "+-") {
		return name, 0
	}
	return name[:dot], n
}
