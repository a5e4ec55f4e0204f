package service

import (
	"context"

	"eventhive/internal/chatbot"
	"eventhive/internal/metrics"
	"eventhive/internal/models"
)

type ChatService struct {
	responder *chatbot.Responder
}

func NewChatService(responder *chatbot.Responder) *ChatService {
	if responder == nil {
		responder = chatbot.NewResponder(chatbot.DefaultEntries, 0)
	}
	return &ChatService{responder: responder}
}

// Stream отвечает на последнее сообщение пользователя, по токену за вызов emit
func (s *ChatService) Stream(ctx context.Context, req *models.ChatRequest, emit func(token string) error) error {
	message := req.LastUserMessage()

	outcome := "fallback"
	if _, matched := s.responder.Respond(message); matched {
		outcome = "matched"
	}
	metrics.ChatResponses.WithLabelValues(outcome).Inc()

	return s.responder.Stream(ctx, message, emit)
}
