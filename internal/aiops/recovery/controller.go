// Package recovery drives the bounded repair loop around a model call: one
// normal attempt, and one stricter retry when the output cannot be used.
package recovery

import (
	"context"
	"errors"
	"strings"

	"career-backend/internal/aiops/markdown"
	"career-backend/internal/aiops/normalize"
	"career-backend/internal/aiops/sanitize"
	"career-backend/internal/llm"
	"career-backend/internal/shared/telemetry"
)

// Defaults used for an unset token budget or an out-of-range temperature.
const (
	DefaultMaxTokens          = 4000
	DefaultInitialTemperature = 0.3
	DefaultRetryTemperature   = 0.1
)

// DefaultRepairInstruction is appended to markdown prompts on the repair attempt.
const DefaultRepairInstruction = "FORMAT FIX: Return ONLY the final markdown document. Do not return JSON. Do not wrap the document in code fences. Do not add any commentary before or after it."

// Controller owns the retry policy for every operation.
type Controller struct {
	Gateway            llm.Gateway
	MaxTokens          int
	InitialTemperature float64
	RetryTemperature   float64
}

// New returns a controller. Temperatures are used as given, 0 included; only
// values outside [0, 1] fall back to the defaults.
func New(gw llm.Gateway, maxTokens int, initialTemperature, retryTemperature float64) *Controller {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if !validTemperature(initialTemperature) {
		initialTemperature = DefaultInitialTemperature
	}
	if !validTemperature(retryTemperature) {
		retryTemperature = DefaultRetryTemperature
	}
	return &Controller{
		Gateway:            gw,
		MaxTokens:          maxTokens,
		InitialTemperature: initialTemperature,
		RetryTemperature:   retryTemperature,
	}
}

func validTemperature(t float64) bool {
	return t >= 0 && t <= 1
}

// JSONRequest describes one structured operation call.
type JSONRequest[T any] struct {
	Operation    string
	SystemPrompt string
	UserPrompt   string
	Schema       string
	Validate     func(sanitize.Value) (T, error)
}

// SchemaRetryPrompt appends the strict JSON instruction to userPrompt.
func SchemaRetryPrompt(userPrompt, schema string) string {
	return userPrompt + "\n\nCRITICAL: Return ONLY valid JSON matching this exact schema:\n" + schema + "\n\nNo explanations. No markdown. Just pure JSON."
}

// InvokeJSON calls the model, normalizes and parses the reply, and validates it.
// A parse failure triggers exactly one retry at the retry temperature.
func InvokeJSON[T any](ctx context.Context, c *Controller, req JSONRequest[T]) (T, error) {
	var zero T
	text, err := c.invoke(ctx, req.Operation, req.SystemPrompt, req.UserPrompt, c.InitialTemperature)
	if err != nil {
		return zero, err
	}

	v, parseErr := parseJSON(text)
	if parseErr != nil {
		telemetry.Warn("ai.operation.retry", map[string]any{
			"operation": req.Operation,
			"error":     parseErr.Error(),
			"retrying":  true,
		})
		Note(ctx, FallbackRetryWithSchema)

		text, err = c.invoke(ctx, req.Operation, req.SystemPrompt, SchemaRetryPrompt(req.UserPrompt, req.Schema), c.RetryTemperature)
		if err != nil {
			return zero, err
		}
		v, parseErr = parseJSON(text)
		if parseErr != nil {
			return zero, &UnstableModelOutputError{Operation: req.Operation, Err: parseErr}
		}
	}
	return req.Validate(v)
}

func parseJSON(text string) (sanitize.Value, error) {
	return sanitize.Parse(normalize.Clean(text))
}

// MarkdownRequest describes one free-text operation call.
type MarkdownRequest struct {
	Operation         string
	SystemPrompt      string
	UserPrompt        string
	Rules             []markdown.Rule
	Check             func(string) error
	RepairInstruction string
}

// ErrEmptyDocument and ErrJSONDocument are the default structural failures.
var (
	ErrEmptyDocument = errors.New("empty document")
	ErrJSONDocument  = errors.New("document is JSON, markdown required")
)

// CheckMarkdown rejects empty and JSON-shaped documents.
func CheckMarkdown(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyDocument
	}
	if markdown.IsJSONShaped(text) {
		return ErrJSONDocument
	}
	return nil
}

// InvokeMarkdown calls the model, cleans the reply and checks its structure.
// A failed check triggers exactly one format repair attempt.
func (c *Controller) InvokeMarkdown(ctx context.Context, req MarkdownRequest) (string, error) {
	rules := req.Rules
	if rules == nil {
		rules = markdown.DefaultRules
	}
	check := req.Check
	if check == nil {
		check = CheckMarkdown
	}

	text, err := c.invoke(ctx, req.Operation, req.SystemPrompt, req.UserPrompt, c.InitialTemperature)
	if err != nil {
		return "", err
	}
	doc := markdown.Apply(text, rules...)
	checkErr := check(doc)
	if checkErr == nil {
		return doc, nil
	}

	telemetry.Warn("ai.operation.retry", map[string]any{
		"operation": req.Operation,
		"error":     checkErr.Error(),
		"retrying":  true,
	})
	Note(ctx, FallbackFormatRepair)

	instruction := req.RepairInstruction
	if instruction == "" {
		instruction = DefaultRepairInstruction
	}
	text, err = c.invoke(ctx, req.Operation, req.SystemPrompt, req.UserPrompt+"\n\n"+instruction, c.RetryTemperature)
	if err != nil {
		return "", err
	}
	doc = markdown.Apply(text, rules...)
	if checkErr = check(doc); checkErr != nil {
		return "", &StructuralFormatError{Operation: req.Operation, Reason: checkErr.Error()}
	}
	return doc, nil
}

func (c *Controller) invoke(ctx context.Context, op, system, user string, temperature float64) (string, error) {
	if c == nil || c.Gateway == nil {
		return "", ErrNoGateway
	}
	out, err := c.Gateway.Invoke(ctx, llm.Invocation{
		Operation:    op,
		SystemPrompt: system,
		UserPrompt:   user,
		MaxTokens:    c.MaxTokens,
		Temperature:  temperature,
	})
	if err != nil {
		return "", err
	}
	return out.Text, nil
}
