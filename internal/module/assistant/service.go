package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/budgetly/backend/internal/platform/debt"
	apperrors "github.com/budgetly/backend/internal/shared/errors"
	"github.com/budgetly/backend/pkg/logger"
	"github.com/budgetly/backend/pkg/money"
)

const maxQuestionLength = 1000

var (
	ErrEmptyQuestion    = apperrors.Validation("question is required")
	ErrQuestionTooLong  = apperrors.Validation(fmt.Sprintf("question exceeds %d characters", maxQuestionLength))
	ErrNotConfigured    = apperrors.Unavailable("assistant is not configured")
	ErrProviderResponse = apperrors.Unavailable("assistant provider did not answer")
)

// Generator turns a prompt into text. Implemented by the OpenAI and Gemini gateways.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// DebtLister provides the debts an answer is grounded on
type DebtLister interface {
	ListDebts(ctx context.Context, ownerID int64) ([]*debt.Summary, error)
}

// Answer is the assistant's reply
type Answer struct {
	Provider string `json:"provider"`
	Answer   string `json:"answer"`
}

// Service answers questions about the owner's debts
type Service struct {
	debts     DebtLister
	generator Generator
	logger    *logger.Logger
}

// NewService creates an assistant service. A nil generator makes every Ask fail with ErrNotConfigured.
func NewService(debts DebtLister, generator Generator, log *logger.Logger) *Service {
	return &Service{
		debts:     debts,
		generator: generator,
		logger:    log.WithField("component", "assistant"),
	}
}

// Enabled reports whether a provider is configured
func (s *Service) Enabled() bool {
	return s.generator != nil
}

// Ask answers a question with the owner's debts as context
func (s *Service) Ask(ctx context.Context, ownerID int64, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if len([]rune(question)) > maxQuestionLength {
		return nil, ErrQuestionTooLong
	}
	if s.generator == nil {
		return nil, ErrNotConfigured
	}

	debts, err := s.debts.ListDebts(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	text, err := s.generator.Generate(ctx, buildPrompt(debts, question))
	if err != nil {
		s.logger.WithContext(ctx).Warn("assistant generation failed", "provider", s.generator.Name(), "error", err)
		return nil, apperrors.Wrap(err, apperrors.ErrCodeUnavailable, ErrProviderResponse.Message)
	}

	s.logger.WithContext(ctx).WithDuration(time.Since(start)).Info("assistant answered",
		"provider", s.generator.Name(),
		"debts", len(debts),
	)
	return &Answer{Provider: s.generator.Name(), Answer: text}, nil
}

func buildPrompt(debts []*debt.Summary, question string) string {
	var sb strings.Builder
	sb.WriteString("You help a person understand their personal debts. ")
	sb.WriteString("Answer briefly and only from the data below.\n\nDebts:\n")

	if len(debts) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, d := range debts {
		fmt.Fprintf(&sb, "- %s: principal %s, paid %s, remaining %s",
			d.Name,
			money.Format(d.Amount),
			money.Format(d.PaidAmount),
			money.Format(d.RemainingAmount),
		)
		if d.InterestRate != nil {
			fmt.Fprintf(&sb, ", interest %s%%", d.InterestRate.String())
		}
		if d.DueDate != nil {
			fmt.Fprintf(&sb, ", due %s", d.DueDate.Format(time.DateOnly))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\nQuestion: %s\n", question)
	return sb.String()
}
