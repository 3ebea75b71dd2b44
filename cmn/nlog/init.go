/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	toStderr     bool
	alsoToStderr bool

	logDir  = os.TempDir()
	aisrole = "hoolamike"
	title   string

	host string
	pid  = os.Getpid()

	nlogs [3]*nlog
	pool  sync.Pool

	onceInitFiles sync.Once

	redactFnames = map[string]struct{}{}

	sevText = [...]string{sevInfo: "info", sevWarn: "warn", sevErr: "error"}
)

func init() {
	host, _ = os.Hostname()
	if host == "" {
		host = "localhost"
	}
	nlogs[sevInfo] = newNlog(sevInfo)
	nlogs[sevWarn] = newNlog(sevWarn)
	nlogs[sevErr] = newNlog(sevErr)
}

// SetLogDirRole (see api.go) rewrites logDir/aisrole before the first
// write; initFiles runs exactly once, lazily, on the first log call.
func initFiles() {
	if toStderr {
		return
	}
	now := time.Now()
	for _, sev := range []severity{sevInfo, sevErr} {
		f, _, err := fcreate(sevText[sev], now)
		if err != nil {
			nlogs[sev].erred.Store(true)
			continue
		}
		nlogs[sev].file = f
	}
}

func fcreate(tag string, t time.Time) (f *os.File, linkName string, err error) {
	if err = os.MkdirAll(logDir, 0o755); err != nil {
		return nil, "", err
	}
	name, link := logfname(tag, t)
	full := filepath.Join(logDir, name)
	f, err = os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", err
	}
	linkFull := filepath.Join(logDir, link)
	os.Remove(linkFull)
	_ = os.Symlink(name, linkFull)
	return f, link, nil
}

func sname() string {
	return fmt.Sprintf("%s.%s", aisrole, host)
}

func assert(cond bool) {
	if !cond {
		panic("nlog: assertion failed")
	}
}
