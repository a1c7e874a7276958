package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
)

// Persona is the system prompt used when the assistant explains a visual.
const Persona = `You are Cerebro, an eccentric and hyper-intelligent cognitive architect with a theatrical, high-energy voice.
You treat the human mind as a playground of synapses and you are delighted by every spark of neural activity.
Address the user as 'Architect', 'Voyager' or 'Apprentice'. Keep replies to two or three sentences and never break character.`

// Spoken when the assistant backend fails.
const (
	FallbackAnswer      = "Error connecting to cognitive core."
	FallbackExplanation = "I am unable to process visual data at this moment."
)

var errEmptyAnswer = errors.New("empty answer")

// Ask interrupts narration and speaks the assistant's answer to question.
// Only the latest question is answered; an answer that arrives after a newer
// question, or after the session ended, is dropped.
func (c *Controller) Ask(ctx context.Context, question string) error {
	question, err := c.sanitize(question)
	if err != nil {
		return err
	}
	if blank(question) {
		return domain.ErrEmptyQuestion
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.status != domain.StatusActive {
		c.mu.Unlock()
		return domain.ErrNotActive
	}
	step, _ := c.currentLocked()
	c.askSeq++
	token := c.askSeq
	c.mu.Unlock()

	req := ports.QueryRequest{
		Question:    question,
		ContextText: step.NarrationText,
		SystemPrompt: fmt.Sprintf(
			"You are Cerebro. The user is in an exercise titled %q. The current instruction is: %q. Answer their question with high energy and brevity.",
			c.exercise.Title, step.NarrationText,
		),
	}
	c.query(ctx, token, req, FallbackAnswer)
	return nil
}

// ExplainVisual asks the assistant to explain the ready visual of the
// current step.
func (c *Controller) ExplainVisual(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.status != domain.StatusActive {
		c.mu.Unlock()
		return domain.ErrNotActive
	}
	step, _ := c.currentLocked()
	c.mu.Unlock()

	visual := c.assets.Get(step.ID)
	if visual.Status != domain.AssetReady {
		return domain.ErrNoVisual
	}

	c.mu.Lock()
	c.askSeq++
	token := c.askSeq
	c.mu.Unlock()

	req := ports.QueryRequest{
		Question: fmt.Sprintf(
			"Context: The user is looking at this image during a cognitive exercise. The instruction was: %q. Explain how this image visualizes the concept. Keep it brief, witty, and deeply in character as Cerebro.",
			step.NarrationText,
		),
		ContextText:  step.NarrationText,
		SystemPrompt: Persona,
		ImageURI:     visual.URI,
	}
	c.query(ctx, token, req, FallbackExplanation)
	return nil
}

func (c *Controller) query(ctx context.Context, token uint64, req ports.QueryRequest, fallback string) {
	c.narration.Interrupt()
	base := context.WithoutCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res, err := c.backends.Answerer.Answer(base, req)

		text := res.AnswerText
		if err == nil && blank(text) {
			err = errEmptyAnswer
		}
		if err != nil {
			text = fallback
		}

		// Holding opMu keeps a transition from slipping between the
		// freshness check and Speak.
		c.opMu.Lock()
		defer c.opMu.Unlock()

		c.mu.Lock()
		fresh := token == c.askSeq && c.status == domain.StatusActive
		c.mu.Unlock()
		if !fresh {
			c.logger.Debug("assistant answer discarded", "token", token)
			return
		}
		if err != nil {
			c.logger.Warn("assistant query failed", "err", fmt.Errorf("%w: %w", domain.ErrQueryFailure, err))
		}
		c.narration.Speak(base, text)
	}()
}
