package handler

import (
	"feels/backend/internal/hub"
	"feels/backend/internal/models"
)

// HubPublisher delivers timeline events to the hub in their HTTP form, so
// stream subscribers see the same message shape as the REST responses.
type HubPublisher struct {
	hub *hub.Hub
}

func NewHubPublisher(h *hub.Hub) *HubPublisher {
	return &HubPublisher{hub: h}
}

func (p *HubPublisher) Publish(chatUID, eventType string, payload any) {
	switch v := payload.(type) {
	case *models.Message:
		payload = newChatMessageResponse(*v)
	case models.Message:
		payload = newChatMessageResponse(v)
	}
	p.hub.Publish(chatUID, eventType, payload)
}
