package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StudyMate/internal/assistant_service/store"
	"StudyMate/internal/models"
	ragservice "StudyMate/internal/rag_service/service"
	"StudyMate/internal/rag/prompts"
	"StudyMate/internal/rag/schema"
	"StudyMate/pkg/logger"

	"gorm.io/datatypes"
)

// Assistant ties the RAG orchestrator to chat persistence. Every chat turn is
// stored, answered with the bounded recent history, and the answer is stored
// again, so a session survives process restarts.
type Assistant struct {
	rag            *ragservice.RAGService
	chats          *store.ChatStore
	users          *store.UserStore
	requestTimeout time.Duration
	historyLimit   int
	log            *logger.Logger
}

// New creates the assistant service. historyLimit bounds the turns carried
// into the prompt; requestTimeout caps a single downstream round trip.
func New(
	rag *ragservice.RAGService,
	chats *store.ChatStore,
	users *store.UserStore,
	requestTimeout time.Duration,
	historyLimit int,
	log *logger.Logger,
) *Assistant {
	if historyLimit <= 0 {
		historyLimit = prompts.DefaultHistoryLimit
	}
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Assistant{
		rag:            rag,
		chats:          chats,
		users:          users,
		requestTimeout: requestTimeout,
		historyLimit:   historyLimit,
		log:            log,
	}
}

// Chat runs one conversation turn: persist the user message, answer it with
// retrieved context and recent history, persist the answer.
func (a *Assistant) Chat(ctx context.Context, sessionID, message string, background map[string]interface{}) (*schema.RAGResult, error) {
	user, err := a.users.GetOrCreateDefaultUser(ctx)
	if err != nil {
		return nil, err
	}

	userMsg := &models.ChatMessage{
		UserID:    user.ID,
		SessionID: sessionID,
		Role:      string(schema.RoleUser),
		Content:   message,
		Timestamp: time.Now(),
	}
	if len(background) > 0 {
		if snapshot, err := json.Marshal(background); err == nil {
			userMsg.Background = datatypes.JSON(snapshot)
		}
	}
	if err := a.chats.Append(ctx, userMsg); err != nil {
		return nil, err
	}

	// The history is loaded after the append, so it includes the message we
	// are answering; drop it before prompting.
	history, err := a.chats.RecentMessages(ctx, user.ID, sessionID, a.historyLimit+1)
	if err != nil {
		a.log.Warn(fmt.Sprintf("failed to load chat history, continuing without it: %v", err))
		history = nil
	}
	if n := len(history); n > 0 {
		history = history[:n-1]
	}

	reqCtx, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()
	result := a.rag.GenerateResponse(reqCtx, message, background, history)

	assistantMsg := &models.ChatMessage{
		UserID:    user.ID,
		SessionID: sessionID,
		Role:      string(schema.RoleAssistant),
		Content:   result.Response,
		Timestamp: time.Now(),
	}
	if err := a.chats.Append(ctx, assistantMsg); err != nil {
		a.log.Warn(fmt.Sprintf("failed to persist assistant message: %v", err))
	}

	return result, nil
}

// AnalyzeScholarship assesses the given background against retrieved
// scholarship requirements.
func (a *Assistant) AnalyzeScholarship(ctx context.Context, background map[string]interface{}, scholarshipQuery string) *schema.RAGResult {
	reqCtx, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()
	return a.rag.AnalyzeScholarshipFit(reqCtx, background, scholarshipQuery)
}

// CountryInfo answers a focused request about one country.
func (a *Assistant) CountryInfo(ctx context.Context, countryName, infoType string) *schema.RAGResult {
	reqCtx, cancel := context.WithTimeout(ctx, a.requestTimeout)
	defer cancel()
	return a.rag.GetCountryInformation(reqCtx, countryName, infoType)
}

// DeleteSession removes a session's chat history.
func (a *Assistant) DeleteSession(ctx context.Context, sessionID string) error {
	user, err := a.users.GetOrCreateDefaultUser(ctx)
	if err != nil {
		return err
	}
	return a.chats.DeleteSession(ctx, user.ID, sessionID)
}

// CollectionStats reports the document count of a knowledge collection.
func (a *Assistant) CollectionStats(ctx context.Context, collection string) (*schema.CollectionStats, error) {
	return a.rag.CollectionStats(ctx, collection)
}

// ClearCollection drops all documents of a knowledge collection.
func (a *Assistant) ClearCollection(ctx context.Context, collection string) error {
	return a.rag.ClearCollection(ctx, collection)
}
