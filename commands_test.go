package main

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
)

var rollPattern = regexp.MustCompile(`Rolled a d(\d+): (\d+)`)

func lastHistoryText(t *testing.T, r *Room) string {
	t.Helper()
	if len(r.history) == 0 {
		t.Fatal("history is empty")
	}
	return r.history[len(r.history)-1].Text
}

func TestRollClampsSides(t *testing.T) {
	cases := []struct {
		requested int
		wantSides int
	}{
		{0, 2},
		{-3, 2},
		{5000, 1000},
		{20, 20},
	}

	for _, tc := range cases {
		r := newTestRoom()
		addClient(t, r, "alice", "10.0.0.1")

		r.handleRoll(tc.requested)

		parts := rollPattern.FindStringSubmatch(lastHistoryText(t, r))
		if parts == nil {
			t.Fatalf("roll output %q did not match the expected format", lastHistoryText(t, r))
		}
		sides, _ := strconv.Atoi(parts[1])
		result, _ := strconv.Atoi(parts[2])

		if sides != tc.wantSides {
			t.Errorf("roll(%d) used d%d, want d%d", tc.requested, sides, tc.wantSides)
		}
		if result < 1 || result > tc.wantSides {
			t.Errorf("roll(%d) = %d, out of [1, %d]", tc.requested, result, tc.wantSides)
		}
	}
}

func TestRandomClampsExtremeBounds(t *testing.T) {
	cases := []struct {
		min, max           int
		wantMin, wantMax   int
	}{
		{0, math.MaxInt, 0, maxRandomBound},
		{math.MinInt, math.MaxInt, minRandomBound, maxRandomBound},
		{math.MinInt, 0, minRandomBound, 0},
		{math.MaxInt, math.MinInt, minRandomBound, maxRandomBound},
	}

	for _, tc := range cases {
		r := newTestRoom()
		alice := addClient(t, r, "alice", "10.0.0.1")

		// Delivered through dispatch: a crafted event must never take down
		// the loop goroutine.
		r.dispatch(alice, ClientEvent{Type: "random", Min: tc.min, Max: tc.max})

		text := lastHistoryText(t, r)
		want := fmt.Sprintf("between %d and %d", tc.wantMin, tc.wantMax)
		if !strings.Contains(text, want) {
			t.Errorf("random(%d, %d) output = %q, want bounds clamped to %q", tc.min, tc.max, text, want)
		}
	}
}

func TestRandomSwapsInvertedBounds(t *testing.T) {
	r := newTestRoom()
	addClient(t, r, "alice", "10.0.0.1")

	r.handleRandom(10, 3)

	text := lastHistoryText(t, r)
	if !strings.Contains(text, "between 3 and 10") {
		t.Fatalf("random output = %q, want the bounds swapped", text)
	}
}

func TestCountdownClampsAndCompletes(t *testing.T) {
	r := newTestRoom()
	addClient(t, r, "alice", "10.0.0.1")

	start := time.Now()
	r.handleCountdown(-5)

	if text := lastHistoryText(t, r); !strings.Contains(text, "1 seconds") {
		t.Fatalf("countdown start = %q, want the duration clamped to 1", text)
	}

	runDeferred(t, r)

	if elapsed := time.Since(start); elapsed < time.Second {
		t.Fatalf("completion arrived after %s, want no earlier than the clamped duration", elapsed)
	}
	if text := lastHistoryText(t, r); !strings.Contains(text, "Time's up") {
		t.Fatalf("completion notice = %q", text)
	}
}

func TestCountdownClampsUpperBound(t *testing.T) {
	r := newTestRoom()
	addClient(t, r, "alice", "10.0.0.1")

	r.handleCountdown(9999)

	if text := lastHistoryText(t, r); !strings.Contains(text, "300 seconds") {
		t.Fatalf("countdown start = %q, want the duration clamped to 300", text)
	}
}

func TestEightBallUsesCanonicalResponse(t *testing.T) {
	r := newTestRoom()
	addClient(t, r, "alice", "10.0.0.1")

	r.handleEightBall("will it rain?")

	if len(r.history) != 1 {
		t.Fatalf("history length = %d, want 1", len(r.history))
	}
	msg := r.history[0]
	if msg.Username != eightBallName {
		t.Errorf("sender = %q, want %q", msg.Username, eightBallName)
	}
	if !strings.Contains(msg.Text, `"will it rain?"`) {
		t.Errorf("output %q does not echo the question", msg.Text)
	}

	matched := false
	for _, response := range eightBallResponses {
		if strings.Contains(msg.Text, response) {
			matched = true
			break
		}
	}
	if !matched {
		t.Errorf("output %q does not contain a canonical response", msg.Text)
	}
}

func TestWorldClockListsZones(t *testing.T) {
	r := newTestRoom()
	addClient(t, r, "alice", "10.0.0.1")

	r.handleWorldClock()

	text := lastHistoryText(t, r)
	if !strings.Contains(text, "UTC") {
		t.Fatalf("world clock output %q is missing UTC", text)
	}
}

func TestCommandsBroadcastUnfiltered(t *testing.T) {
	r := newTestRoom()
	addClient(t, r, "alice", "10.0.0.1")
	bob := addClient(t, r, "bob", "10.0.0.2")

	// Bob blocks everyone; bot output must still reach him.
	for i := 1; i <= 3; i++ {
		r.handleBlock(bob, fmt.Sprintf("10.0.0.%d", i))
	}
	drainAll(r)

	r.handleJoke()

	if got := chatMessages(drain(bob)); len(got) != 1 {
		t.Fatalf("bob received %d bot messages, want 1", len(got))
	}
}
