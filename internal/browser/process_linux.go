//go:build linux

package browser

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
)

// descendants walks /proc and returns every process whose parent chain leads
// to pid, ordered parents before children.
func descendants(pid int) []int {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil
	}

	children := make(map[int][]int)
	for _, e := range entries {
		child, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		ppid, _, ok := readStat(child)
		if !ok {
			continue
		}
		children[ppid] = append(children[ppid], child)
	}

	var out []int
	queue := []int{pid}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range children[cur] {
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out
}

func processAlive(pid int) bool {
	_, state, ok := readStat(pid)
	if !ok {
		return false
	}
	return state != 'Z' && state != 'X'
}

// readStat returns the parent pid and state letter from /proc/<pid>/stat.
func readStat(pid int) (ppid int, state byte, ok bool) {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return 0, 0, false
	}
	// comm may contain spaces and parens; fields resume after the last ')'
	end := bytes.LastIndexByte(data, ')')
	if end < 0 || end+2 >= len(data) {
		return 0, 0, false
	}
	fields := bytes.Fields(data[end+2:])
	if len(fields) < 2 || len(fields[0]) == 0 {
		return 0, 0, false
	}
	ppid, err = strconv.Atoi(string(fields[1]))
	if err != nil {
		return 0, 0, false
	}
	return ppid, fields[0][0], true
}
