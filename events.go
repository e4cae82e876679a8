package main

import (
	"errors"
	"fmt"
	"strings"
)

const maxUsernameLength = 32

// ClientEvent is the tagged union of everything a client can send over the
// websocket. Only the fields relevant to a given Type are populated; the
// rest unmarshal to their zero values and are ignored.
type ClientEvent struct {
	Type          string `json:"type"`
	Username      string `json:"username,omitempty"`       // join / leave / message / ask-agent
	Text          string `json:"text,omitempty"`           // message
	Question      string `json:"question,omitempty"`       // 8ball / ask-agent
	City          string `json:"city,omitempty"`           // weather
	Number        int    `json:"number,omitempty"`         // roll
	Seconds       int    `json:"seconds,omitempty"`        // countdown
	Min           int    `json:"min,omitempty"`            // random
	Max           int    `json:"max,omitempty"`            // random
	Key           string `json:"key,omitempty"`            // submit-credential
	Model         string `json:"model,omitempty"`          // submit-credential
	TargetAddress string `json:"targetAddress,omitempty"`  // block-user / unblock-user
}

var errUnknownEvent = errors.New("unknown event type")

// validate enforces the per-type required fields at the boundary, before an
// event reaches the dispatch loop.
func (ev *ClientEvent) validate() error {
	switch ev.Type {
	case "join":
		name := strings.TrimSpace(ev.Username)
		if name == "" {
			return errors.New("a username is required to join")
		}
		if len(name) > maxUsernameLength {
			return fmt.Errorf("usernames are limited to %d characters", maxUsernameLength)
		}
	case "message":
		if strings.TrimSpace(ev.Text) == "" {
			return errors.New("cannot send an empty message")
		}
	case "8ball":
		if strings.TrimSpace(ev.Question) == "" {
			return errors.New("the 8-ball needs a question")
		}
	case "weather":
		if strings.TrimSpace(ev.City) == "" {
			return errors.New("a city is required for weather lookups")
		}
	case "ask-agent":
		if strings.TrimSpace(ev.Question) == "" {
			return errors.New("the agent needs a question")
		}
	case "submit-credential":
		if ev.Key == "" || ev.Model == "" {
			return errors.New("both an API key and a model are required")
		}
	case "block-user", "unblock-user":
		if strings.TrimSpace(ev.TargetAddress) == "" {
			return errors.New("a target address is required")
		}
	case "leave", "clear-messages", "joke", "flip", "roll", "quote", "time",
		"trivia", "countdown", "random", "deactivate-agent",
		"clear-agent-memory", "get-blocked-users":
		// no required fields
	default:
		return errUnknownEvent
	}
	return nil
}

// ChatMessage is a single entry in the shared history. Immutable once logged.
type ChatMessage struct {
	Username   string `json:"username"`
	Text       string `json:"text"`
	Timestamp  string `json:"timestamp"`
	SenderAddr string `json:"senderAddr,omitempty"`
	DM         bool   `json:"dm,omitempty"`
	Recipient  string `json:"recipient,omitempty"`
}

// Messages sent to clients. One struct per outbound event type.

type UserJoinedMessage struct {
	Type     string `json:"type"` // "user-joined"
	Username string `json:"username"`
}

type OnlineUsersMessage struct {
	Type  string   `json:"type"` // "online-users-update"
	Users []string `json:"users"`
}

type LoadMessagesMessage struct {
	Type     string        `json:"type"` // "load-messages"
	Messages []ChatMessage `json:"messages"`
}

type ChatEventMessage struct {
	Type    string      `json:"type"` // "message"
	Message ChatMessage `json:"message"`
}

type UserLeftMessage struct {
	Type     string `json:"type"` // "user-left"
	Username string `json:"username"`
}

type ClearMessagesMessage struct {
	Type string `json:"type"` // "clear-messages"
}

type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

type CredentialStatusMessage struct {
	Type       string `json:"type"` // "credential-status"
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	IsProvider bool   `json:"isProvider"`
}

type AgentDeactivatedMessage struct {
	Type string `json:"type"` // "agent-deactivated"
}

type CredentialRequiredMessage struct {
	Type string `json:"type"` // "credential-required"
}

type UserBlockedMessage struct {
	Type    string `json:"type"` // "user-blocked"
	Address string `json:"address"`
}

type UserUnblockedMessage struct {
	Type    string `json:"type"` // "user-unblocked"
	Address string `json:"address"`
}

type BlockedUsersListMessage struct {
	Type      string   `json:"type"` // "blocked-users-list"
	Addresses []string `json:"addresses"`
}
