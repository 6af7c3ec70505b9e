package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	customers "customerSyncWs/internal/modules/customers/domain"
	"customerSyncWs/internal/modules/realtime/application/port"
	"customerSyncWs/internal/modules/realtime/domain"
	"customerSyncWs/internal/shared/auth"
)

const commandTimeout = 10 * time.Second

// CommandProcessor interprets inbound frames. Protocol errors answer with
// an error frame and leave the connection open; only the transport decides
// when a connection dies.
type CommandProcessor struct {
	hub       *Hub
	writer    port.CustomerWriter
	validator auth.TokenValidator
}

// NewCommandProcessor wires the processor. writer and validator may be nil
// when the corresponding capability is not deployed.
func NewCommandProcessor(hub *Hub, writer port.CustomerWriter, validator auth.TokenValidator) *CommandProcessor {
	return &CommandProcessor{hub: hub, writer: writer, validator: validator}
}

// Process decodes and dispatches one raw inbound frame.
func (p *CommandProcessor) Process(ctx context.Context, c *Client, raw []byte) {
	var cmd domain.Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.SendFrame(domain.ErrorFrame(domain.ErrInvalidMessage.Error()))
		return
	}

	switch strings.ToLower(strings.TrimSpace(cmd.Type)) {
	case domain.CommandAuthenticate:
		p.handleAuthenticate(c, cmd)
	case domain.CommandSubscribe:
		p.handleSubscribe(c, cmd)
	case domain.CommandUnsubscribe:
		p.handleUnsubscribe(c, cmd)
	case domain.CommandPing:
		p.reply(c, cmd, domain.NewFrame(domain.FramePong, map[string]any{}))
	case domain.CommandCustomerUpdate:
		p.handleCustomerUpdate(ctx, c, cmd)
	default:
		p.reply(c, cmd, domain.ErrorFrame("unknown command type: "+cmd.Type))
	}
}

func (p *CommandProcessor) handleAuthenticate(c *Client, cmd domain.Command) {
	var payload domain.AuthenticatePayload
	if err := json.Unmarshal(cmd.Data, &payload); err != nil {
		p.reply(c, cmd, domain.ErrorFrame(domain.ErrInvalidMessage.Error()))
		return
	}

	customerID := strings.TrimSpace(payload.CustomerID)
	if p.validator != nil && payload.Token != "" {
		claims, err := p.validator.Validate(payload.Token)
		if err != nil {
			p.reply(c, cmd, domain.ErrorFrame("invalid token"))
			return
		}
		if customerID == "" {
			customerID = claims.CustomerID()
		} else if customerID != claims.CustomerID() {
			p.reply(c, cmd, domain.ErrorFrame(domain.ErrUnauthorized.Error()))
			return
		}
	}
	if customerID == "" {
		p.reply(c, cmd, domain.ErrorFrame("missing customerId"))
		return
	}

	if err := c.Bind(customerID); err != nil {
		p.reply(c, cmd, domain.ErrorFrame(err.Error()))
		return
	}
	slog.Info("connection authenticated", slog.String("connectionId", c.ID()), slog.String("customerId", customerID))
	p.reply(c, cmd, domain.NewFrame(domain.FrameAuthenticationSuccess, map[string]string{"customerId": customerID}))
}

func (p *CommandProcessor) handleSubscribe(c *Client, cmd domain.Command) {
	payload, ok := p.subscriptionPayload(c, cmd)
	if !ok {
		return
	}
	key := domain.SubscriptionKey(payload.Topic, payload.EntityID)
	p.hub.Subscribe(c, key)
	p.reply(c, cmd, domain.NewFrame(domain.FrameSubscriptionConfirmed, subscriptionData(payload, key)))
}

func (p *CommandProcessor) handleUnsubscribe(c *Client, cmd domain.Command) {
	payload, ok := p.subscriptionPayload(c, cmd)
	if !ok {
		return
	}
	key := domain.SubscriptionKey(payload.Topic, payload.EntityID)
	p.hub.Unsubscribe(c, key)
	p.reply(c, cmd, domain.NewFrame(domain.FrameUnsubscriptionConfirmed, subscriptionData(payload, key)))
}

func (p *CommandProcessor) subscriptionPayload(c *Client, cmd domain.Command) (domain.SubscribePayload, bool) {
	var payload domain.SubscribePayload
	if err := json.Unmarshal(cmd.Data, &payload); err != nil {
		p.reply(c, cmd, domain.ErrorFrame(domain.ErrInvalidMessage.Error()))
		return payload, false
	}
	payload.Topic = strings.TrimSpace(payload.Topic)
	payload.EntityID = strings.TrimSpace(payload.EntityID)
	if payload.Topic == "" {
		p.reply(c, cmd, domain.ErrorFrame("missing topic"))
		return payload, false
	}
	return payload, true
}

func subscriptionData(payload domain.SubscribePayload, key string) map[string]string {
	data := map[string]string{
		"topic":           payload.Topic,
		"subscriptionKey": key,
	}
	if payload.EntityID != "" {
		data["entityId"] = payload.EntityID
	}
	return data
}

func (p *CommandProcessor) handleCustomerUpdate(ctx context.Context, c *Client, cmd domain.Command) {
	var payload domain.CustomerUpdatePayload
	if err := json.Unmarshal(cmd.Data, &payload); err != nil {
		p.reply(c, cmd, domain.ErrorFrame(domain.ErrInvalidMessage.Error()))
		return
	}

	bound := c.BoundCustomerID()
	if bound == "" || bound != strings.TrimSpace(payload.CustomerID) {
		p.reply(c, cmd, domain.ErrorFrame(domain.ErrUnauthorized.Error()))
		return
	}
	if p.writer == nil {
		p.reply(c, cmd, domain.ErrorFrame("customer updates not available"))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	updated, err := p.writer.Update(ctx, bound, payload.UpdateData, cmd.RequestID)
	if err != nil {
		p.reply(c, cmd, domain.ErrorFrame(updateErrorMessage(err)))
		return
	}
	p.reply(c, cmd, domain.NewFrame(domain.FrameCustomerUpdated, map[string]any{"customer": updated}))
}

func updateErrorMessage(err error) string {
	switch {
	case errors.Is(err, customers.ErrNotFound):
		return customers.ErrNotFound.Error()
	case errors.Is(err, customers.ErrConflict):
		return customers.ErrConflict.Error()
	default:
		return "customer update failed"
	}
}

// reply stamps the reply with the request id so clients can correlate.
func (p *CommandProcessor) reply(c *Client, cmd domain.Command, frame domain.Frame) {
	frame.RequestID = cmd.RequestID
	c.SendFrame(frame)
}
