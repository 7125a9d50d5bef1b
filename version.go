package main

import (
	"runtime/debug"
)

var commit = "dev"

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			commit = s.Value
			if len(commit) > 7 {
				commit = commit[:7]
			}
		}
	}
}
