/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package hk

import (
	"testing"
	"time"
)

func TestTickRunsOnlyDueJobs(t *testing.T) {
	h := &housekeeper{started: make(chan struct{})}
	start := time.Now()

	var earlyRuns, lateRuns int
	h.jobs = []*job{
		{name: "every-second", fn: func() time.Duration { earlyRuns++; return 0 }, interval: time.Second, next: start},
		{name: "every-hour", fn: func() time.Duration { lateRuns++; return 0 }, interval: time.Hour, next: start.Add(time.Hour)},
	}

	h.tick(start)

	if earlyRuns != 1 {
		t.Fatalf("earlyRuns = %d, want 1", earlyRuns)
	}
	if lateRuns != 0 {
		t.Fatalf("lateRuns = %d, want 0 (not yet due)", lateRuns)
	}
}

func TestTickReschedulesUsingFnReturnValueWhenPositive(t *testing.T) {
	h := &housekeeper{started: make(chan struct{})}
	start := time.Now()

	j := &job{name: "backoff", fn: func() time.Duration { return 5 * time.Minute }, interval: time.Second, next: start}
	h.jobs = []*job{j}

	h.tick(start)

	want := start.Add(5 * time.Minute)
	if !j.next.Equal(want) {
		t.Fatalf("next = %v, want %v", j.next, want)
	}
}

func TestTickFallsBackToRegisteredIntervalWhenFnReturnsZero(t *testing.T) {
	h := &housekeeper{started: make(chan struct{})}
	start := time.Now()

	j := &job{name: "steady", fn: func() time.Duration { return 0 }, interval: 30 * time.Second, next: start}
	h.jobs = []*job{j}

	h.tick(start)

	want := start.Add(30 * time.Second)
	if !j.next.Equal(want) {
		t.Fatalf("next = %v, want %v", j.next, want)
	}
}

func TestRegAndUnreg(t *testing.T) {
	Reg("test-job", func() time.Duration { return 0 }, time.Minute)
	defer Unreg("test-job")

	DefaultHK.mu.Lock()
	found := false
	for _, j := range DefaultHK.jobs {
		if j.name == "test-job" {
			found = true
		}
	}
	DefaultHK.mu.Unlock()
	if !found {
		t.Fatal("Reg should have registered the job on DefaultHK")
	}

	Unreg("test-job")
	DefaultHK.mu.Lock()
	for _, j := range DefaultHK.jobs {
		if j.name == "test-job" {
			t.Fatal("Unreg should have removed the job")
		}
	}
	DefaultHK.mu.Unlock()
}
