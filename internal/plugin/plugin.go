// Package plugin defines the plugin contract and the host that owns
// one bot context per loaded plugin, bridging bus events into each
// plugin's interaction router.
package plugin

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Stage2Sec/frenzy/internal/bus"
	"github.com/Stage2Sec/frenzy/internal/chat"
	"github.com/Stage2Sec/frenzy/internal/logger"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/xid"
)

// Plugin is a loadable bot feature. Register wires the plugin's
// handlers into the bot context it is given; each plugin gets its own.
type Plugin interface {
	Name() string
	Description() string
	Version() string
	Register(ctx context.Context, bot *Bot) error
}

// Bot is the per-plugin context: the outbound client, the plugin's own
// interaction router, and its option store. The host owns one per
// loaded plugin.
type Bot struct {
	Client  chat.Client
	Router  *chat.Router
	Options *chat.OptionStore
}

// Info describes a loaded plugin.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
}

type loadedPlugin struct {
	info Info
	bot  *Bot
	sub  *nats.Subscription
}

// Host loads plugins and fans bus events out to their routers. It is
// also the publisher side used by the webhook ingress.
type Host struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	client  chat.Client
	plugins []*loadedPlugin
}

// NewHost creates a host publishing and subscribing on the given
// connection.
func NewHost(nc *nats.Conn, js jetstream.JetStream, client chat.Client) *Host {
	return &Host{
		nc:     nc,
		js:     js,
		client: client,
	}
}

// Load registers a plugin and subscribes its router to the event bus.
// A failing plugin is logged and skipped; it must not take down the
// host.
func (h *Host) Load(ctx context.Context, p Plugin) error {
	bot := &Bot{
		Client:  h.client,
		Router:  chat.NewRouter(),
		Options: chat.NewOptionStore(),
	}

	if err := p.Register(ctx, bot); err != nil {
		logger.Error("Error loading plugin %q: %v", p.Name(), err)
		return err
	}

	dispatchCtx := context.WithoutCancel(ctx)
	sub, err := h.nc.Subscribe(bus.SubjectWildcard, func(msg *nats.Msg) {
		var ev chat.Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Warn("Skipping malformed event on %s: %v", msg.Subject, err)
			return
		}

		reply := bot.Router.Dispatch(dispatchCtx, &ev)
		// Only routers that matched the event answer a request;
		// the requester takes the first reply.
		if msg.Reply != "" && reply != nil {
			if err := msg.Respond(reply); err != nil {
				logger.Error("Failed to respond to %s: %v", msg.Subject, err)
			}
		}
	})
	if err != nil {
		logger.Error("Error subscribing plugin %q: %v", p.Name(), err)
		return err
	}

	h.plugins = append(h.plugins, &loadedPlugin{
		info: Info{
			Name:        p.Name(),
			Description: p.Description(),
			Version:     p.Version(),
		},
		bot: bot,
		sub: sub,
	})

	logger.Info("Plugin %q loaded", p.Name())
	return nil
}

// Plugins returns the loaded plugin descriptions.
func (h *Host) Plugins() []Info {
	infos := make([]Info, 0, len(h.plugins))
	for _, p := range h.plugins {
		infos = append(infos, p.info)
	}
	return infos
}

// Close unsubscribes all plugin routers from the bus.
func (h *Host) Close() {
	for _, p := range h.plugins {
		if err := p.sub.Unsubscribe(); err != nil {
			logger.Warn("Failed to unsubscribe plugin %q: %v", p.info.Name, err)
		}
	}
	h.plugins = nil
}

func stamp(ev *chat.Event) {
	if ev.ID == "" {
		ev.ID = xid.New().String()
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
}

// PublishEvent publishes a fire-and-forget event onto the durable
// event log.
func (h *Host) PublishEvent(ctx context.Context, ev *chat.Event) error {
	stamp(ev)
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	subject := bus.SubjectForKind(string(ev.Kind))
	logger.Debug("Publishing event: kind=%s id=%s", ev.Kind, ev.ID)
	if _, err := h.js.Publish(ctx, subject, data); err != nil {
		logger.Error("Failed to publish event to %s: %v", subject, err)
		return err
	}
	return nil
}

// RequestEvent publishes a request/reply event (options request or
// view submission) and returns the first router reply. A timeout
// means no router claimed the event; the caller acknowledges with an
// empty response.
func (h *Host) RequestEvent(ctx context.Context, ev *chat.Event, timeout time.Duration) ([]byte, error) {
	stamp(ev)
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	subject := bus.SubjectForKind(string(ev.Kind))
	msg, err := h.nc.RequestWithContext(reqCtx, subject, data)
	if err != nil {
		if reqCtx.Err() != nil || err == nats.ErrNoResponders {
			logger.Debug("No reply for %s event %s", ev.Kind, ev.ID)
			return nil, nil
		}
		return nil, err
	}
	return msg.Data, nil
}
