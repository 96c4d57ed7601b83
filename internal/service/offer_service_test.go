package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-review/internal/assistant"
	"daily-review/internal/model"
	"daily-review/internal/repository"
)

type recordingCompleter struct {
	reply    string
	err      error
	messages []assistant.Message
}

func (c *recordingCompleter) Complete(_ context.Context, messages []assistant.Message) (string, error) {
	c.messages = messages
	return c.reply, c.err
}

func TestOfferQuestionnaireInOrder(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(newTestDB(t))
	svc := NewOfferService(store.Offers, &recordingCompleter{})

	offer, err := svc.Start(ctx, "u1", "Scale Sprint")
	require.NoError(t, err)

	section, q, ok := NextQuestion(offer)
	require.True(t, ok)
	assert.Equal(t, "target", section.ID)
	assert.Equal(t, "niche", q.ID)

	offer, err = svc.Answer(ctx, "u1", offer.ID, "agency owners")
	require.NoError(t, err)
	assert.Equal(t, "agency owners", offer.Answers["niche"])

	_, q, ok = NextQuestion(offer)
	require.True(t, ok)
	assert.Equal(t, "problem", q.ID)

	_, err = svc.Answer(ctx, "u1", offer.ID, "  ")
	assert.ErrorIs(t, err, model.ErrValidationFailed)
}

func TestNextQuestionDoneWhenAllAnswered(t *testing.T) {
	offer := &model.Offer{Answers: map[string]string{}}
	total := 0
	for _, section := range OfferSections {
		for _, q := range section.Questions {
			offer.Answers[q.ID] = "x"
			total++
		}
	}
	assert.Equal(t, 21, total)

	_, _, ok := NextQuestion(offer)
	assert.False(t, ok)
}

func TestOfferDraftStoresReply(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(newTestDB(t))
	completer := &recordingCompleter{reply: "Headline: Scale Sprint"}
	svc := NewOfferService(store.Offers, completer)

	offer, err := svc.Start(ctx, "u1", "Scale Sprint")
	require.NoError(t, err)
	_, err = svc.Answer(ctx, "u1", offer.ID, "agency owners")
	require.NoError(t, err)

	draft, err := svc.Draft(ctx, "u1", offer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Headline: Scale Sprint", draft)

	require.Len(t, completer.messages, 2)
	assert.Equal(t, assistant.RoleSystem, completer.messages[0].Role)
	assert.Contains(t, completer.messages[1].Content, "What niche are you targeting? agency owners")
	assert.NotContains(t, completer.messages[1].Content, "Pricing Strategy")

	stored, err := svc.Get(ctx, "u1", offer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Headline: Scale Sprint", stored.Draft)
}

func TestOfferDraftCompleterFailureKeepsOffer(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(newTestDB(t))
	svc := NewOfferService(store.Offers, assistant.Disabled{})

	offer, err := svc.Start(ctx, "u1", "Scale Sprint")
	require.NoError(t, err)

	_, err = svc.Draft(ctx, "u1", offer.ID)
	assert.ErrorIs(t, err, assistant.ErrNotConfigured)

	stored, err := svc.Get(ctx, "u1", offer.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Draft)
}
