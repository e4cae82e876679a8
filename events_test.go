package main

import (
	"errors"
	"strings"
	"testing"
)

func TestEventValidation(t *testing.T) {
	valid := []ClientEvent{
		{Type: "join", Username: "alice"},
		{Type: "message", Text: "hello"},
		{Type: "8ball", Question: "will it rain?"},
		{Type: "weather", City: "Oslo"},
		{Type: "ask-agent", Question: "what is Go?"},
		{Type: "submit-credential", Key: "sk-test", Model: "test-model"},
		{Type: "block-user", TargetAddress: "10.0.0.1"},
		{Type: "unblock-user", TargetAddress: "10.0.0.1"},
		{Type: "leave"},
		{Type: "clear-messages"},
		{Type: "joke"},
		{Type: "flip"},
		{Type: "roll", Number: 20},
		{Type: "quote"},
		{Type: "time"},
		{Type: "trivia"},
		{Type: "countdown", Seconds: 10},
		{Type: "random", Min: 1, Max: 6},
		{Type: "deactivate-agent"},
		{Type: "clear-agent-memory"},
		{Type: "get-blocked-users"},
	}
	for _, ev := range valid {
		if err := ev.validate(); err != nil {
			t.Errorf("%s: unexpected validation error: %v", ev.Type, err)
		}
	}

	invalid := []ClientEvent{
		{Type: "join"},
		{Type: "join", Username: "   "},
		{Type: "join", Username: strings.Repeat("x", maxUsernameLength+1)},
		{Type: "message"},
		{Type: "message", Text: " \t "},
		{Type: "8ball"},
		{Type: "weather", City: ""},
		{Type: "ask-agent"},
		{Type: "submit-credential", Key: "sk-test"},
		{Type: "submit-credential", Model: "test-model"},
		{Type: "block-user"},
		{Type: "unblock-user", TargetAddress: " "},
	}
	for _, ev := range invalid {
		if err := ev.validate(); err == nil {
			t.Errorf("%+v: expected a validation error", ev)
		}
	}
}

func TestEventValidationRejectsUnknownType(t *testing.T) {
	ev := ClientEvent{Type: "self-destruct"}
	if err := ev.validate(); !errors.Is(err, errUnknownEvent) {
		t.Fatalf("err = %v, want errUnknownEvent", err)
	}
}

func TestUsernameAtLimitAccepted(t *testing.T) {
	ev := ClientEvent{Type: "join", Username: strings.Repeat("x", maxUsernameLength)}
	if err := ev.validate(); err != nil {
		t.Fatalf("a name at the limit should pass: %v", err)
	}
}
