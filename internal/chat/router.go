package chat

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"regexp"
	"strings"

	"github.com/Stage2Sec/frenzy/internal/block"
	"github.com/Stage2Sec/frenzy/internal/errors"
	"github.com/Stage2Sec/frenzy/internal/logger"
)

// ActionHandler handles a matched block action event.
type ActionHandler func(ctx context.Context, ev *BlockActionEvent)

// SubmissionHandler handles a matched view submission. A non-nil
// response is sent back to the platform (e.g. pushing an error modal);
// nil acknowledges the submission.
type SubmissionHandler func(ctx context.Context, ev *ViewSubmissionEvent) *ViewResponse

// OptionsHandler answers a type-ahead options request.
type OptionsHandler func(ctx context.Context, ev *OptionsRequestEvent) []*block.Option

// MessageHandler handles a matched dot-command message.
type MessageHandler func(ctx context.Context, ev *MessageEvent)

// ActionIDMatcher matches an action id either literally or by regular
// expression (for dynamically suffixed ids). The zero value matches
// any action id.
type ActionIDMatcher struct {
	literal string
	pattern *regexp.Regexp
}

// ActionID builds a literal action id matcher.
func ActionID(id string) ActionIDMatcher {
	return ActionIDMatcher{literal: id}
}

// ActionPattern builds a regular expression action id matcher.
func ActionPattern(re *regexp.Regexp) ActionIDMatcher {
	return ActionIDMatcher{pattern: re}
}

// Match reports whether the matcher accepts the given action id.
func (m ActionIDMatcher) Match(actionID string) bool {
	if m.pattern != nil {
		return m.pattern.MatchString(actionID)
	}
	if m.literal != "" {
		return m.literal == actionID
	}
	return true
}

// ActionMatcher selects block action events by block id and/or action
// id. Empty fields match anything.
type ActionMatcher struct {
	BlockID  string
	ActionID ActionIDMatcher
}

// Matches reports whether the matcher accepts the given action.
func (m ActionMatcher) Matches(a *Action) bool {
	if m.BlockID != "" && m.BlockID != a.BlockID {
		return false
	}
	return m.ActionID.Match(a.ActionID)
}

type actionRegistration struct {
	matcher ActionMatcher
	handler ActionHandler
}

type submissionRegistration struct {
	callbackID string
	handler    SubmissionHandler
}

type optionsRegistration struct {
	blockID  string
	actionID string
	handler  OptionsHandler
}

type commandRegistration struct {
	command string
	handler MessageHandler
}

// Router demultiplexes inbound interaction events to registered
// handlers. All matching handlers run in registration order; events
// with no match are silently dropped. A panic inside one handler is
// recovered and logged so the remaining handlers still run and nothing
// propagates back to the transport.
type Router struct {
	actions     []actionRegistration
	submissions []submissionRegistration
	options     []optionsRegistration
	commands    []commandRegistration
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{}
}

// Action registers a handler for block actions matching m.
func (r *Router) Action(m ActionMatcher, h ActionHandler) {
	r.actions = append(r.actions, actionRegistration{matcher: m, handler: h})
}

// ViewSubmission registers a handler for submissions of views with the
// given callback id.
func (r *Router) ViewSubmission(callbackID string, h SubmissionHandler) {
	r.submissions = append(r.submissions, submissionRegistration{callbackID: callbackID, handler: h})
}

// Options registers a handler answering options requests for the given
// block id and action id.
func (r *Router) Options(blockID, actionID string, h OptionsHandler) {
	r.options = append(r.options, optionsRegistration{blockID: blockID, actionID: actionID, handler: h})
}

// DotCommand registers a handler for messages starting with the given
// command. A leading dot is added if missing; matching is a literal,
// case-sensitive prefix test on the trimmed message text.
func (r *Router) DotCommand(command string, h MessageHandler) {
	if !strings.HasPrefix(command, ".") {
		command = "." + command
	}
	r.commands = append(r.commands, commandRegistration{command: command, handler: h})
}

// Dispatch routes an inbound event to every matching handler and
// returns the serialized reply for request/reply kinds (options
// requests and view submissions), nil otherwise.
func (r *Router) Dispatch(ctx context.Context, ev *Event) []byte {
	switch ev.Kind {
	case KindBlockAction:
		if ev.BlockAction != nil {
			r.dispatchAction(ctx, ev.BlockAction)
		}
	case KindViewSubmission:
		if ev.ViewSubmission != nil {
			return r.dispatchSubmission(ctx, ev.ViewSubmission)
		}
	case KindOptionsRequest:
		if ev.OptionsRequest != nil {
			return r.dispatchOptions(ctx, ev.OptionsRequest)
		}
	case KindMessage:
		if ev.Message != nil {
			r.dispatchMessage(ctx, ev.Message)
		}
	}
	return nil
}

func (r *Router) dispatchAction(ctx context.Context, ev *BlockActionEvent) {
	for _, reg := range r.actions {
		matched := false
		for _, action := range ev.Actions {
			if reg.matcher.Matches(action) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		r.invoke(func() {
			reg.handler(ctx, ev)
		})
	}
}

func (r *Router) dispatchSubmission(ctx context.Context, ev *ViewSubmissionEvent) []byte {
	callbackID := ""
	if ev.View != nil {
		callbackID = ev.View.CallbackID
	}

	var response *ViewResponse
	for _, reg := range r.submissions {
		if reg.callbackID != callbackID {
			continue
		}
		reg := reg
		r.invoke(func() {
			resp := reg.handler(ctx, ev)
			if response == nil {
				response = resp
			}
		})
	}

	if response == nil {
		return nil
	}
	data, err := json.Marshal(response)
	if err != nil {
		logger.Error("Failed to marshal view response: %v", err)
		return nil
	}
	return data
}

func (r *Router) dispatchOptions(ctx context.Context, ev *OptionsRequestEvent) []byte {
	actionID := ev.ActionID
	if actionID == "" {
		actionID = "selection"
	}

	var options []*block.Option
	for _, reg := range r.options {
		if reg.blockID != ev.BlockID || reg.actionID != actionID {
			continue
		}
		reg := reg
		r.invoke(func() {
			opts := reg.handler(ctx, ev)
			if options == nil {
				options = opts
			}
		})
	}

	if options == nil {
		return nil
	}
	data, err := json.Marshal(struct {
		Options []*block.Option `json:"options"`
	}{Options: options})
	if err != nil {
		logger.Error("Failed to marshal options response: %v", err)
		return nil
	}
	return data
}

func (r *Router) dispatchMessage(ctx context.Context, ev *MessageEvent) {
	// Ignore bot messages so the bot never answers itself
	if ev.BotID != "" {
		return
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}
	trimmed := *ev
	trimmed.Text = text

	for _, reg := range r.commands {
		if !strings.HasPrefix(text, reg.command) {
			continue
		}
		reg := reg
		r.invoke(func() {
			reg.handler(ctx, &trimmed)
		})
	}
}

// invoke runs a handler with panic recovery. Handler failures are
// logged and never interrupt the dispatch of the remaining handlers.
func (r *Router) invoke(fn func()) {
	err := errors.Recover(func() error {
		fn()
		return nil
	})
	if err != nil {
		var panicErr *errors.PanicError
		if stderrors.As(err, &panicErr) {
			logger.Error("Handler panicked: %v\n%s", panicErr.Value, panicErr.StackTrace)
			return
		}
		logger.Error("Handler failed: %v", err)
	}
}
