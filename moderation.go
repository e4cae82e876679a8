// The moderation chain.
//
// Inbound chat text runs through an ordered list of stages; the first stage
// to claim the message ends evaluation. A stage either resolves the message
// synchronously or takes ownership of it (the AI stage hands off to a
// collaborator goroutine and finishes on the dispatch loop later).

package main

import (
	"fmt"
	"regexp"
	"strings"
)

type stageResult int

const (
	stageNext stageResult = iota // not claimed, try the next stage
	stageDone                    // terminal, message fully handled
)

type modStage struct {
	name string
	run  func(r *Room, c *Client, text string) stageResult
}

// Order matters: direct messages and trivia guesses are interpreted before
// any content filtering, and the static wordlist is the last resort.
var moderationChain = []modStage{
	{name: "direct-message", run: (*Room).stageDirectMessage},
	{name: "trivia-answer", run: (*Room).stageTriviaAnswer},
	{name: "agent-moderation", run: (*Room).stageAgentModeration},
	{name: "banned-words", run: (*Room).stageBannedWords},
}

func (r *Room) handleChat(c *Client, text string) {
	for _, stage := range moderationChain {
		if stage.run(r, c, text) == stageDone {
			logf(r.cfg, "MOD: %q message resolved by %s stage", c.username, stage.name)
			return
		}
	}
	r.deliverChat(c, text)
}

// deliverChat commits an accepted message: server timestamp and sender
// address attached, appended to the shared log, fanned out to everyone not
// blocking the sender.
func (r *Room) deliverChat(c *Client, text string) {
	msg := ChatMessage{
		Username:   c.username,
		Text:       text,
		Timestamp:  renderTimestamp(),
		SenderAddr: c.addr,
	}
	r.appendMessage(msg)
	r.broadcastChat(msg)
}

// ---- stage 1: direct messages ----

var dmPattern = regexp.MustCompile(`^@(\S+)\s+(.+)$`)

// stageDirectMessage routes "@name rest" point-to-point. Direct messages
// skip the content filters entirely and are never written to the shared
// log; they exist only on the two sockets involved.
func (r *Room) stageDirectMessage(c *Client, text string) stageResult {
	parts := dmPattern.FindStringSubmatch(text)
	if parts == nil {
		return stageNext
	}
	target := parts[1]

	recipient, ok := r.users[target]
	if !ok {
		r.systemNotice(c, fmt.Sprintf("User @%s was not found.", target))
		return stageDone
	}

	if r.blocks[recipient][c.addr] {
		r.systemNotice(c, fmt.Sprintf("Your message to @%s was not delivered.", target))
		return stageDone
	}

	msg := ChatMessage{
		Username:   c.username,
		Text:       text,
		Timestamp:  renderTimestamp(),
		SenderAddr: c.addr,
		DM:         true,
		Recipient:  target,
	}

	r.sendTo(recipient, ChatEventMessage{Type: "message", Message: msg})
	r.sendTo(c, ChatEventMessage{Type: "message", Message: msg})

	logf(r.cfg, "MOD: DM %q -> %q", c.username, target)
	return stageDone
}

// ---- stage 2: trivia answers ----

// stageTriviaAnswer treats the message as a guess against every outstanding
// trivia session the sender has not attempted yet. While a question is open,
// any message longer than two characters counts as the sender's one attempt
// at it, whether or not it was meant as a guess.
func (r *Room) stageTriviaAnswer(c *Client, text string) stageResult {
	guess := normalizeGuess(text)

	var firstOpen *TriviaSession
	for _, session := range r.trivia {
		if session.attempted[c] {
			continue
		}
		if triviaMatches(session.answer, guess) {
			r.resolveTrivia(session, c)
			return stageDone
		}
		if firstOpen == nil {
			firstOpen = session
		}
	}

	if firstOpen != nil && len(guess) > 2 {
		firstOpen.attempted[c] = true
		r.systemBroadcast(triviaName, fmt.Sprintf("%s guessed wrong!", c.username))
		return stageDone
	}

	return stageNext
}

// ---- stage 3: AI moderation ----

// stageAgentModeration asks the active agent for a verdict. The call runs
// off-loop; the verdict re-enters through the deferred channel. When the
// collaborator fails, the message falls back to the static wordlist.
func (r *Room) stageAgentModeration(c *Client, text string) stageResult {
	if r.agent == nil {
		return stageNext
	}

	session := r.agent
	go func() {
		verdict, err := session.moderate(text)
		r.later(func() {
			r.finishModeratedChat(c, text, verdict, err)
		})
	}()

	return stageDone
}

func (r *Room) finishModeratedChat(c *Client, text string, verdict moderationVerdict, err error) {
	if err != nil {
		logf(r.cfg, "MOD: Agent moderation failed, using wordlist: %v", err)
		if r.stageBannedWords(c, text) == stageDone {
			return
		}
		r.deliverChat(c, text)
		return
	}

	if verdict.inappropriate {
		reason := verdict.reason
		if reason == "" {
			reason = "inappropriate content"
		}
		r.systemBroadcast(botName, fmt.Sprintf("%s's message was removed by the moderator: %s", c.username, reason))
		return
	}

	r.deliverChat(c, text)
}

// ---- stage 4: banned words ----

func (r *Room) stageBannedWords(c *Client, text string) stageResult {
	if !containsBannedWord(text) {
		return stageNext
	}

	r.systemBroadcast(botName, fmt.Sprintf("%s tried to send a banned word.", c.username))
	return stageDone
}

func containsBannedWord(text string) bool {
	lowered := strings.ToLower(text)
	for _, word := range bannedWords {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}
