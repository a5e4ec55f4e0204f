// Package chatbot отвечает на вопросы виджета по статической таблице шаблонов
package chatbot

import (
	"context"
	"strings"
	"time"
	"unicode"
)

// FallbackResponse возвращается, когда ни один шаблон не подошёл
const FallbackResponse = "I'm sorry, I didn't quite catch that. You can ask me about upcoming events, registration, tickets, payments, refunds or reviews."

// minSubstringScore - порог первого прохода (длина шаблона / длина сообщения)
const minSubstringScore = 0.2

// Entry - набор шаблонов и готовый ответ
type Entry struct {
	Patterns []string
	Response string
}

// DefaultEntries - таблица ответов EventHive; порядок важен при равных баллах
var DefaultEntries = []Entry{
	{
		Patterns: []string{"hello", "hi there", "hey", "good morning", "good evening", "greetings"},
		Response: "Hello! I'm the EventHive assistant. I can help you find events, register, or answer questions about tickets and payments.",
	},
	{
		Patterns: []string{"upcoming events", "what events", "events this week", "show events", "find events", "event list"},
		Response: "You can browse all upcoming events on the Events page, or open the Calendar to see what's happening on a specific day. Use the search bar to filter by title, category or location.",
	},
	{
		Patterns: []string{"register", "sign up for", "how do i join", "registration", "book a spot"},
		Response: "To register, open the event page and press Register. Fill in your name, email and the number of tickets. Free events are confirmed immediately; paid events take you to a secure checkout.",
	},
	{
		Patterns: []string{"ticket", "tickets available", "sold out", "how many tickets"},
		Response: "Each event shows how many tickets are still available. You can book up to 20 tickets per registration. Once you're registered you'll get a confirmation code and a downloadable ticket with a QR code.",
	},
	{
		Patterns: []string{"payment", "pay", "credit card", "checkout", "price"},
		Response: "Payments for paid events are handled by our secure checkout provider. Your registration stays pending until the payment completes, and you'll see the status change to completed right after.",
	},
	{
		Patterns: []string{"refund", "money back", "cancel my registration", "cancel registration"},
		Response: "Refunds are issued by the event organizers. Please contact the organizer with your confirmation code and they will process the refund back to your original payment method.",
	},
	{
		Patterns: []string{"check in", "check-in", "qr code", "confirmation code"},
		Response: "At the venue, show the QR code from your ticket or tell the staff your confirmation code. They'll check you in within seconds.",
	},
	{
		Patterns: []string{"review", "feedback", "rate an event", "rating"},
		Response: "After attending an event you can leave a review with a 1 to 5 star rating from the event page. Organizers read every review and may reply to you directly.",
	},
	{
		Patterns: []string{"create an event", "organize", "host an event", "organizer"},
		Response: "Events are created by administrators from the admin dashboard. If you'd like to host an event, reach out to the EventHive team and we'll set you up.",
	},
	{
		Patterns: []string{"contact", "support", "help desk", "email you"},
		Response: "You can reach EventHive support at support@eventhive.example. We usually reply within one business day.",
	},
	{
		Patterns: []string{"thank you", "thanks", "bye", "goodbye"},
		Response: "You're welcome! Enjoy your events, and come back any time.",
	},
}

// Responder подбирает ответ по таблице и выдаёт его по токенам
type Responder struct {
	entries    []Entry
	tokenDelay time.Duration
}

// NewResponder создает ответчик; entries == nil означает DefaultEntries
func NewResponder(entries []Entry, tokenDelay time.Duration) *Responder {
	if entries == nil {
		entries = DefaultEntries
	}
	return &Responder{
		entries:    entries,
		tokenDelay: tokenDelay,
	}
}

// Respond возвращает ответ и признак того, что шаблон нашёлся
func (r *Responder) Respond(message string) (string, bool) {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return FallbackResponse, false
	}

	if entry := r.matchSubstring(msg); entry != nil {
		return entry.Response, true
	}

	if entry := r.matchWords(msg); entry != nil {
		return entry.Response, true
	}

	return FallbackResponse, false
}

func (r *Responder) matchSubstring(msg string) *Entry {
	msgLen := float64(len([]rune(msg)))

	var best *Entry
	bestScore := 0.0
	for i := range r.entries {
		for _, pattern := range r.entries[i].Patterns {
			if !strings.Contains(msg, pattern) {
				continue
			}
			score := float64(len([]rune(pattern))) / msgLen
			if score > bestScore {
				bestScore = score
				best = &r.entries[i]
			}
		}
	}

	if bestScore > minSubstringScore {
		return best
	}
	return nil
}

func (r *Responder) matchWords(msg string) *Entry {
	words := significantWords(msg)
	if len(words) == 0 {
		return nil
	}

	var best *Entry
	bestOverlap := 0
	for i := range r.entries {
		patternWords := make(map[string]struct{})
		for _, pattern := range r.entries[i].Patterns {
			for _, w := range strings.Fields(pattern) {
				patternWords[w] = struct{}{}
			}
		}

		overlap := 0
		for _, w := range words {
			if _, ok := patternWords[w]; ok {
				overlap++
			}
		}
		if overlap > bestOverlap {
			bestOverlap = overlap
			best = &r.entries[i]
		}
	}

	return best
}

// significantWords оставляет слова длиннее трёх символов без пунктуации
func significantWords(msg string) []string {
	var words []string
	for _, field := range strings.Fields(msg) {
		w := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if len([]rune(w)) > 3 {
			words = append(words, w)
		}
	}
	return words
}

// Stream отдаёт ответ в emit по одному токену с фиксированной задержкой.
// Каждый токен, кроме последнего, заканчивается пробелом.
func (r *Responder) Stream(ctx context.Context, message string, emit func(token string) error) error {
	response, _ := r.Respond(message)
	tokens := strings.Fields(response)

	for i, token := range tokens {
		if i > 0 && r.tokenDelay > 0 {
			timer := time.NewTimer(r.tokenDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if i < len(tokens)-1 {
			token += " "
		}
		if err := emit(token); err != nil {
			return err
		}
	}

	return nil
}
