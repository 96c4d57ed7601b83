package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"daily-review/internal/assistant"
	"daily-review/internal/model"
	"daily-review/internal/repository"
)

// OfferQuestion is one prompt of the offer questionnaire.
type OfferQuestion struct {
	ID      string
	Prompt  string
	Example string
}

// OfferSection groups related questions.
type OfferSection struct {
	ID        string
	Title     string
	Questions []OfferQuestion
}

// OfferSections is the questionnaire, asked in order.
var OfferSections = []OfferSection{
	{ID: "target", Title: "Who Is It For?", Questions: []OfferQuestion{
		{ID: "niche", Prompt: "What niche are you targeting?", Example: "Female entrepreneurs who want to scale their service business"},
		{ID: "problem", Prompt: "What's their biggest painful problem?", Example: "Working 60+ hours/week but still not making enough profit"},
		{ID: "failed_solutions", Prompt: "What solutions have they tried that didn't work?", Example: "Hiring cheap VAs, using complex automation tools"},
		{ID: "secret_desire", Prompt: "What do they secretly want? (Beyond money)", Example: "To be seen as a successful businesswoman by their family"},
		{ID: "consequences", Prompt: "What happens if they don't solve this problem?", Example: "They will burn out and have to go back to their 9-5"},
	}},
	{ID: "promise", Title: "What's the Promise?", Questions: []OfferQuestion{
		{ID: "big_result", Prompt: "What's the BIG RESULT you guarantee?", Example: "Double your revenue while working 20 hours less per week"},
		{ID: "timeframe", Prompt: "How FAST can you deliver it?", Example: "90 days or less"},
		{ID: "emotional_outcome", Prompt: "How will they feel after getting this result?", Example: "Confident, in control, respected by peers"},
		{ID: "future_benefits", Prompt: "What doors does this open for them?", Example: "Scale to 7-figures, take regular vacations, hire A-players"},
	}},
	{ID: "method", Title: "How Does It Work?", Questions: []OfferQuestion{
		{ID: "main_steps", Prompt: "What are the 3-5 main steps of your system?", Example: "1. Audit current operations 2. Implement core systems 3. Train team 4. Scale delivery"},
		{ID: "key_step", Prompt: "What's the most important step?", Example: "The systems implementation phase"},
		{ID: "simple_explanation", Prompt: "How would you explain it to a 10-year-old?", Example: "We build a business that runs like a well-oiled machine"},
	}},
	{ID: "objections", Title: "Objections & Value", Questions: []OfferQuestion{
		{ID: "hesitations", Prompt: "What are 3-5 reasons someone might hesitate to buy?", Example: "Price, time commitment, past failures with other programs"},
		{ID: "advantages", Prompt: "How do you flip these into advantages?", Example: "High price = serious clients only, better results, more support"},
		{ID: "proof", Prompt: "How can you prove your system works?", Example: "Case studies, live demonstrations, data from past clients"},
		{ID: "bonuses", Prompt: "What extra bonuses make it irresistible?", Example: "1-on-1 strategy session, templates library, weekly group calls"},
	}},
	{ID: "guarantee", Title: "Risk Reversal", Questions: []OfferQuestion{
		{ID: "guarantee_type", Prompt: "How do you make it 100% risk-free?", Example: "Double your money back if you do not 2x your revenue in 90 days"},
		{ID: "guarantee_phrase", Prompt: "What is a catchy way to phrase your guarantee?", Example: "Triple Your Revenue Or Triple Your Money Back"},
	}},
	{ID: "pricing", Title: "Pricing Strategy", Questions: []OfferQuestion{
		{ID: "value_worth", Prompt: "What is the outcome worth to them?", Example: "$100k+ in additional revenue, 20 hours/week saved"},
		{ID: "competitor_pricing", Prompt: "What are competitors charging?", Example: "Similar programs charge $5k-$10k but offer less support"},
		{ID: "price_point", Prompt: "What is your ideal price point?", Example: "$8,997 or 3 payments of $3,333"},
	}},
}

const offerSystemPrompt = "You are an offer creation assistant. You help entrepreneurs turn their answers into a clear, irresistible offer."

var offerDraftTemplate = template.Must(template.New("offer").Parse(`Write a one-page offer for "{{.Title}}" from these questionnaire answers.
{{range .Sections}}
## {{.Title}}
{{range .Answers}}- {{.Prompt}} {{.Answer}}
{{end}}{{end}}
Finish with a headline, the core promise, the guarantee and the price.`))

type draftAnswer struct {
	Prompt string
	Answer string
}

type draftSection struct {
	Title   string
	Answers []draftAnswer
}

// OfferService runs the offer questionnaire and asks the assistant for a draft.
type OfferService struct {
	offers    *repository.OfferRepository
	completer assistant.Completer
}

func NewOfferService(offers *repository.OfferRepository, completer assistant.Completer) *OfferService {
	return &OfferService{offers: offers, completer: completer}
}

func (s *OfferService) Start(ctx context.Context, userID, title string) (*model.Offer, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("start offer: title is required: %w", model.ErrValidationFailed)
	}
	return s.offers.Create(ctx, userID, title)
}

func (s *OfferService) List(ctx context.Context, userID string) ([]model.Offer, error) {
	return s.offers.ListByUser(ctx, userID)
}

func (s *OfferService) Get(ctx context.Context, userID, offerID string) (*model.Offer, error) {
	return s.offers.Get(ctx, userID, offerID)
}

// NextQuestion returns the first unanswered question, in questionnaire order.
func NextQuestion(offer *model.Offer) (OfferSection, OfferQuestion, bool) {
	for _, section := range OfferSections {
		for _, q := range section.Questions {
			if strings.TrimSpace(offer.Answers[q.ID]) == "" {
				return section, q, true
			}
		}
	}
	return OfferSection{}, OfferQuestion{}, false
}

// Answer stores the reply to the current question.
func (s *OfferService) Answer(ctx context.Context, userID, offerID, answer string) (*model.Offer, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fmt.Errorf("answer offer question: empty answer: %w", model.ErrValidationFailed)
	}
	offer, err := s.offers.Get(ctx, userID, offerID)
	if err != nil {
		return nil, err
	}
	_, q, ok := NextQuestion(offer)
	if !ok {
		return offer, nil
	}
	return s.offers.SetAnswer(ctx, userID, offerID, q.ID, answer)
}

// Draft asks the assistant to write up the offer and stores the result.
func (s *OfferService) Draft(ctx context.Context, userID, offerID string) (string, error) {
	offer, err := s.offers.Get(ctx, userID, offerID)
	if err != nil {
		return "", err
	}
	prompt, err := renderOfferPrompt(offer)
	if err != nil {
		return "", fmt.Errorf("render offer prompt: %w", err)
	}

	draft, err := s.completer.Complete(ctx, []assistant.Message{
		{Role: assistant.RoleSystem, Content: offerSystemPrompt},
		{Role: assistant.RoleUser, Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("draft offer: %w", err)
	}
	if err := s.offers.SetDraft(ctx, userID, offerID, draft); err != nil {
		return "", err
	}
	return draft, nil
}

func (s *OfferService) Delete(ctx context.Context, userID, offerID string) error {
	return s.offers.Delete(ctx, userID, offerID)
}

func renderOfferPrompt(offer *model.Offer) (string, error) {
	data := struct {
		Title    string
		Sections []draftSection
	}{Title: offer.Title}

	for _, section := range OfferSections {
		ds := draftSection{Title: section.Title}
		for _, q := range section.Questions {
			if answer := strings.TrimSpace(offer.Answers[q.ID]); answer != "" {
				ds.Answers = append(ds.Answers, draftAnswer{Prompt: q.Prompt, Answer: answer})
			}
		}
		if len(ds.Answers) > 0 {
			data.Sections = append(data.Sections, ds)
		}
	}

	var buf bytes.Buffer
	if err := offerDraftTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
