package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophcoach/internal/dbx"
	"github.com/dmitrijs2005/gophcoach/internal/server/models"
	"github.com/dmitrijs2005/gophcoach/internal/server/repositories/repomanager"
)

// turnTokenOverhead approximates the per-message framing the provider adds.
const turnTokenOverhead = 4

// ContextConfig bounds the assembled context. A ceiling <= 0 is disabled.
type ContextConfig struct {
	SystemPrompt string
	MaxTurns     int // including the system turn and the new user turn
	MaxChars     int // runes of content across all turns
	MaxTokens    int
	HistoryFetch int // most recent messages read from the store; 0 reads all
}

// ContextAssembler builds the ordered turn list sent to the completion
// provider: one system turn, the user's prior messages oldest first, then
// the new user text. Oldest prior turns are evicted first when a ceiling is
// exceeded; the system turn and the new user turn always stay.
type ContextAssembler struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	cfg         ContextConfig
	tokens      TokenCounter
}

func NewContextAssembler(db dbx.DBTX, m repomanager.RepositoryManager, cfg ContextConfig, tokens TokenCounter) *ContextAssembler {
	if tokens == nil {
		tokens = RuneEstimate{}
	}
	return &ContextAssembler{db: db, repomanager: m, cfg: cfg, tokens: tokens}
}

// Build reads the user's history and assembles the context. It never writes.
func (a *ContextAssembler) Build(ctx context.Context, userID, text string) ([]models.Turn, error) {
	history, err := a.repomanager.Messages(a.db).ListByUser(ctx, userID, a.cfg.HistoryFetch)
	if err != nil {
		return nil, fmt.Errorf("error loading history: %w", err)
	}
	return a.Assemble(history, text), nil
}

// Assemble is the pure part of Build.
func (a *ContextAssembler) Assemble(history []*models.Message, text string) []models.Turn {
	prior := make([]*models.Message, 0, len(history))
	for _, m := range history {
		if m != nil && m.Role.Valid() {
			prior = append(prior, m)
		}
	}
	slices.SortStableFunc(prior, func(x, y *models.Message) int {
		if c := x.CreatedAt.Compare(y.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(x.ID, y.ID)
	})

	system := models.Turn{Role: models.RoleSystem, Content: a.cfg.SystemPrompt}
	last := models.Turn{Role: models.RoleUser, Content: text}

	chars := utf8.RuneCountInString(system.Content) + utf8.RuneCountInString(last.Content)
	tokens := a.turnTokens(system.Content) + a.turnTokens(last.Content)

	priorChars := make([]int, len(prior))
	priorTokens := make([]int, len(prior))
	for i, m := range prior {
		priorChars[i] = utf8.RuneCountInString(m.Content)
		priorTokens[i] = a.turnTokens(m.Content)
		chars += priorChars[i]
		tokens += priorTokens[i]
	}

	start := 0
	for start < len(prior) && a.overBudget(len(prior)-start+2, chars, tokens) {
		chars -= priorChars[start]
		tokens -= priorTokens[start]
		start++
	}

	turns := make([]models.Turn, 0, len(prior)-start+2)
	turns = append(turns, system)
	for _, m := range prior[start:] {
		turns = append(turns, models.Turn{Role: m.Role, Content: m.Content})
	}
	return append(turns, last)
}

func (a *ContextAssembler) overBudget(turns, chars, tokens int) bool {
	return (a.cfg.MaxTurns > 0 && turns > a.cfg.MaxTurns) ||
		(a.cfg.MaxChars > 0 && chars > a.cfg.MaxChars) ||
		(a.cfg.MaxTokens > 0 && tokens > a.cfg.MaxTokens)
}

func (a *ContextAssembler) turnTokens(content string) int {
	if a.cfg.MaxTokens <= 0 {
		return 0
	}
	return a.tokens.Count(content) + turnTokenOverhead
}
