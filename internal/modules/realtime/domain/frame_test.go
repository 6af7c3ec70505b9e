package domain

import (
	"encoding/json"
	"testing"
	"time"

	customers "customerSyncWs/internal/modules/customers/domain"
)

func TestSubscriptionKeyMatchesEventTopicRule(t *testing.T) {
	event := customers.Event{Type: customers.EventCustomerUpdated, EntityID: "c1"}
	if SubscriptionKey("CUSTOMER_UPDATED", "c1") != event.Topic() {
		t.Fatal("subscription key and event topic derivation diverged")
	}
	if SubscriptionKey("CUSTOMER_CREATED", "") != "CUSTOMER_CREATED" {
		t.Fatalf("unexpected key: %s", SubscriptionKey("CUSTOMER_CREATED", ""))
	}
}

func TestNewFrameStampsRFC3339Timestamp(t *testing.T) {
	frame := NewFrame(FramePong, nil)
	if frame.Type != FramePong {
		t.Fatalf("unexpected type: %s", frame.Type)
	}
	if _, err := time.Parse(time.RFC3339, frame.Timestamp); err != nil {
		t.Fatalf("timestamp not RFC3339: %s", frame.Timestamp)
	}
}

func TestErrorFrameShape(t *testing.T) {
	raw, err := json.Marshal(ErrorFrame("boom"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != FrameError {
		t.Fatalf("unexpected type: %s", decoded.Type)
	}
	if decoded.Data["error"] != "boom" {
		t.Fatalf("unexpected error payload: %+v", decoded.Data)
	}
}

func TestCommandDecodesPayloadLazily(t *testing.T) {
	raw := []byte(`{"type":"subscribe","data":{"topic":"CUSTOMER_UPDATED","entityId":"c1"},"requestId":"r1"}`)
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		t.Fatalf("unmarshal command: %v", err)
	}
	if cmd.Type != CommandSubscribe || cmd.RequestID != "r1" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	var payload SubscribePayload
	if err := json.Unmarshal(cmd.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Topic != "CUSTOMER_UPDATED" || payload.EntityID != "c1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
