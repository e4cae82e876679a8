// The conversational agent gateway.
//
// At most one AgentSession exists per room, owned by whichever connection
// supplied a working credential. The same session backs both the /ai command
// and the AI moderation stage. All collaborator calls run off-loop and
// re-enter through Room.later; completions check that the session is still
// the active one before touching it.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const agentHistoryLimit = 20

const agentSystemPrompt = "You are a helpful assistant in a small chat room called NordChat. " +
	"Answer questions concisely, in a friendly tone, in at most a short paragraph."

const moderationPrompt = "You are the moderation filter for a small public chat room. " +
	"Judge whether the user's message is appropriate for a general audience. " +
	"Reply with exactly one line: either APPROPRIATE, or INAPPROPRIATE: <short reason>."

type modelFactory func(ctx context.Context, key, modelID string) (model.BaseChatModel, error)

func arkModelFactory(ctx context.Context, key, modelID string) (model.BaseChatModel, error) {
	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey: key,
		Model:  modelID,
	})
}

// probeModel issues a lightweight generation to validate a freshly submitted
// credential before a session is installed.
func probeModel(ctx context.Context, chat model.BaseChatModel) error {
	_, err := chat.Generate(ctx, []*schema.Message{
		schema.UserMessage("Reply with the single word OK."),
	})
	if err != nil {
		return fmt.Errorf("credential probe: %w", err)
	}
	return nil
}

type AgentSession struct {
	owner   *Client
	chat    model.BaseChatModel
	modelID string
	history []*schema.Message
}

type moderationVerdict struct {
	inappropriate bool
	reason        string
}

// moderate submits text for a binary verdict. Called from collaborator
// goroutines; it only reads the immutable chat model handle.
func (s *AgentSession) moderate(text string) (moderationVerdict, error) {
	resp, err := s.chat.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage(moderationPrompt),
		schema.UserMessage(text),
	})
	if err != nil {
		return moderationVerdict{}, fmt.Errorf("moderation call: %w", err)
	}
	return parseVerdict(resp.Content), nil
}

func parseVerdict(content string) moderationVerdict {
	line := strings.TrimSpace(content)
	upper := strings.ToUpper(line)
	if !strings.HasPrefix(upper, "INAPPROPRIATE") {
		return moderationVerdict{}
	}

	reason := ""
	if idx := strings.Index(line, ":"); idx >= 0 {
		reason = strings.TrimSpace(line[idx+1:])
	}
	return moderationVerdict{inappropriate: true, reason: reason}
}

// ---- room handlers ----

func (r *Room) handleSubmitCredential(c *Client, key, modelID string) {
	if r.agent != nil {
		r.sendTo(c, CredentialStatusMessage{
			Type:       "credential-status",
			Success:    false,
			Message:    "An agent session is already active.",
			IsProvider: r.agent.owner == c,
		})
		return
	}

	factory := r.newModel
	go func() {
		ctx := context.Background()
		chat, err := factory(ctx, key, modelID)
		if err == nil {
			err = probeModel(ctx, chat)
		}
		r.later(func() {
			r.finishCredential(c, chat, modelID, err)
		})
	}()
}

func (r *Room) finishCredential(c *Client, chat model.BaseChatModel, modelID string, err error) {
	if err != nil {
		r.sendTo(c, CredentialStatusMessage{
			Type:    "credential-status",
			Success: false,
			Message: "Credential validation failed. Check your API key and model.",
		})
		logf(r.cfg, "AGENT: Credential rejected for %q: %v", c.username, err)
		return
	}

	// The submitter may have disconnected, or lost the race to another
	// submitter, while the probe was in flight.
	if !r.clients[c] {
		return
	}
	if r.agent != nil {
		r.sendTo(c, CredentialStatusMessage{
			Type:    "credential-status",
			Success: false,
			Message: "An agent session is already active.",
		})
		return
	}

	r.agent = &AgentSession{owner: c, chat: chat, modelID: modelID}

	r.sendTo(c, CredentialStatusMessage{
		Type:       "credential-status",
		Success:    true,
		Message:    fmt.Sprintf("AI agent activated with model %s.", modelID),
		IsProvider: true,
	})
	r.systemBroadcast(agentName, fmt.Sprintf(
		"AI agent is now online (model %s). Ask questions with /ai; chat is now AI-moderated.", modelID))
	logf(r.cfg, "AGENT: Activated by %q with model %s", c.username, modelID)
}

func (r *Room) handleAskAgent(c *Client, question string) {
	if r.agent == nil {
		r.sendTo(c, CredentialRequiredMessage{Type: "credential-required"})
		return
	}

	// The question passes through the content-moderation stages first, as if
	// it were a chat message.
	session := r.agent
	asker := c.username
	go func() {
		verdict, err := session.moderate(question)
		r.later(func() {
			r.finishAskModeration(session, asker, question, verdict, err)
		})
	}()
}

func (r *Room) finishAskModeration(session *AgentSession, asker, question string, verdict moderationVerdict, err error) {
	if r.agent != session {
		return
	}

	if err != nil {
		logf(r.cfg, "AGENT: Question moderation failed, using wordlist: %v", err)
		if containsBannedWord(question) {
			r.systemBroadcast(botName, fmt.Sprintf("%s tried to ask a banned question.", asker))
			return
		}
	} else if verdict.inappropriate {
		reason := verdict.reason
		if reason == "" {
			reason = "inappropriate content"
		}
		r.systemBroadcast(botName, fmt.Sprintf("%s's question was removed by the moderator: %s", asker, reason))
		return
	}

	r.forwardToAgent(session, asker, question)
}

// forwardToAgent snapshots the rolling history on the loop, generates
// off-loop, and commits the exchange back on the loop.
func (r *Room) forwardToAgent(session *AgentSession, asker, question string) {
	msgs := make([]*schema.Message, 0, len(session.history)+2)
	msgs = append(msgs, schema.SystemMessage(agentSystemPrompt))
	msgs = append(msgs, session.history...)
	msgs = append(msgs, schema.UserMessage(question))

	go func() {
		resp, err := session.chat.Generate(context.Background(), msgs)
		r.later(func() {
			r.finishAsk(session, asker, question, resp, err)
		})
	}()
}

func (r *Room) finishAsk(session *AgentSession, asker, question string, resp *schema.Message, err error) {
	// Deactivated while the call was in flight.
	if r.agent != session {
		return
	}

	if err != nil {
		r.systemBroadcast(agentName, "The agent could not answer that question. Try again later.")
		logf(r.cfg, "AGENT: Generation failed: %v", err)
		return
	}

	session.history = append(session.history,
		schema.UserMessage(question),
		schema.AssistantMessage(resp.Content, nil))
	if len(session.history) > agentHistoryLimit {
		session.history = session.history[len(session.history)-agentHistoryLimit:]
	}

	r.systemBroadcast(agentName, fmt.Sprintf("❓ %s asked: %s\n\n%s", asker, question, resp.Content))
	logf(r.cfg, "AGENT: Answered %q for %q", question, asker)
}

func (r *Room) handleDeactivateAgent(c *Client) {
	if r.agent == nil {
		r.sendTo(c, CredentialRequiredMessage{Type: "credential-required"})
		return
	}
	if r.agent.owner != c {
		r.sendTo(c, ErrorMessage{Type: "error", Message: "Only the credential owner can deactivate the agent."})
		return
	}

	r.teardownAgent()
	logf(r.cfg, "AGENT: Deactivated by %q", c.username)
}

func (r *Room) handleClearAgentMemory(c *Client) {
	if r.agent == nil {
		r.sendTo(c, CredentialRequiredMessage{Type: "credential-required"})
		return
	}
	if r.agent.owner != c {
		r.sendTo(c, ErrorMessage{Type: "error", Message: "Only the credential owner can clear the agent's memory."})
		return
	}

	r.agent.history = nil
	r.systemNotice(c, "The agent's conversation memory has been cleared.")
	logf(r.cfg, "AGENT: Memory cleared by %q", c.username)
}

// teardownAgent clears credential, history and ownership. Used by explicit
// deactivation and by owner disconnect.
func (r *Room) teardownAgent() {
	r.agent = nil
	r.broadcastEvent(AgentDeactivatedMessage{Type: "agent-deactivated"})
	r.systemBroadcast(agentName, "AI agent deactivated. Chat moderation falls back to the wordlist.")
}
