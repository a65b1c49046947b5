package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophcoach/internal/common"
	"github.com/dmitrijs2005/gophcoach/internal/dbx"
	"github.com/dmitrijs2005/gophcoach/internal/logging"
	"github.com/dmitrijs2005/gophcoach/internal/server/metrics"
	"github.com/dmitrijs2005/gophcoach/internal/server/models"
	"github.com/dmitrijs2005/gophcoach/internal/server/repositories/repomanager"
)

type CompletionGateway interface {
	Complete(ctx context.Context, turns []models.Turn) (string, error)
}

type ChatConfig struct {
	HistoryLimit    int
	MaxMessageChars int
}

// Reply is the outcome of a successful completion. Persisted is false when
// the assistant turn could not be stored; the reply is still valid.
type Reply struct {
	Content          string
	UserMessage      *models.Message
	AssistantMessage *models.Message
	Persisted        bool
}

// ChatService runs one chat exchange per Send: build the context, store the
// user turn, call the provider, store the assistant turn. No lock is held
// across the sequence; concurrent sends from one user may see the same
// history.
type ChatService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	assembler   *ContextAssembler
	gateway     CompletionGateway
	cfg         ChatConfig
	logger      logging.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewChatService(db dbx.DBTX, m repomanager.RepositoryManager, assembler *ContextAssembler,
	gateway CompletionGateway, cfg ChatConfig, logger logging.Logger, mtr *metrics.Metrics) *ChatService {
	return &ChatService{
		db:          db,
		repomanager: m,
		assembler:   assembler,
		gateway:     gateway,
		cfg:         cfg,
		logger:      logger.With("module", "chat"),
		metrics:     mtr,
		now:         time.Now,
	}
}

func (s *ChatService) Send(ctx context.Context, userID, text string) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		s.metrics.ChatSend(metrics.OutcomeValidation)
		return nil, fmt.Errorf("%w: message is required", common.ErrValidation)
	}
	if s.cfg.MaxMessageChars > 0 && utf8.RuneCountInString(text) > s.cfg.MaxMessageChars {
		s.metrics.ChatSend(metrics.OutcomeValidation)
		return nil, fmt.Errorf("%w: message must be at most %d characters", common.ErrValidation, s.cfg.MaxMessageChars)
	}

	turns, err := s.assembler.Build(ctx, userID, text)
	if err != nil {
		s.metrics.ChatSend(metrics.OutcomeStore)
		return nil, fmt.Errorf("error building context: %w", err)
	}

	repo := s.repomanager.Messages(s.db)

	userMsg, err := s.newMessage(userID, models.RoleUser, text, time.Time{})
	if err != nil {
		s.metrics.ChatSend(metrics.OutcomeStore)
		return nil, err
	}
	if _, err := repo.Append(ctx, userMsg); err != nil {
		s.metrics.ChatSend(metrics.OutcomeStore)
		s.metrics.PersistFailure(string(models.RoleUser))
		return nil, fmt.Errorf("error saving user message: %w", err)
	}

	started := time.Now()
	content, err := s.gateway.Complete(ctx, turns)
	s.metrics.ObserveCompletion(time.Since(started))
	if err != nil {
		s.metrics.ChatSend(metrics.OutcomeUpstream)
		if errors.Is(err, context.Canceled) {
			s.logger.Info(ctx, "completion abandoned by caller", "user_id", userID)
		} else {
			s.logger.Warn(ctx, "completion failed", "user_id", userID, "turns", len(turns), "error", err)
		}
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	reply := &Reply{Content: content, UserMessage: userMsg}

	assistantMsg, err := s.newMessage(userID, models.RoleAssistant, content, userMsg.CreatedAt)
	if err == nil {
		_, err = repo.Append(ctx, assistantMsg)
	}
	if err != nil {
		s.metrics.PersistFailure(string(models.RoleAssistant))
		s.logger.Error(ctx, "assistant reply not persisted", "user_id", userID, "error", err)
	} else {
		reply.AssistantMessage = assistantMsg
		reply.Persisted = true
	}

	s.metrics.ChatSend(metrics.OutcomeOK)
	s.logger.Info(ctx, "chat reply sent", "user_id", userID, "turns", len(turns), "persisted", reply.Persisted)
	return reply, nil
}

// History returns the most recent messages of userID, oldest first.
func (s *ChatService) History(ctx context.Context, userID string) ([]*models.Message, error) {
	msgs, err := s.repomanager.Messages(s.db).ListByUser(ctx, userID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("error loading history: %w", err)
	}
	return msgs, nil
}

// newMessage stamps the message no earlier than notBefore.
func (s *ChatService) newMessage(userID string, role models.Role, content string, notBefore time.Time) (*models.Message, error) {
	id, err := newID()
	if err != nil {
		return nil, fmt.Errorf("error generating message id: %w", err)
	}
	ts := storedTime(s.now())
	if ts.Before(notBefore) {
		ts = notBefore
	}
	return &models.Message{ID: id, UserID: userID, Role: role, Content: content, CreatedAt: ts}, nil
}
