package ai

import (
	"testing"

	"chronicle-server/internal/models"

	"github.com/pkoukk/tiktoken-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTrimTestClient собирает клиента с реальным энкодером, но без сетевой части.
func newTrimTestClient(t *testing.T, tokenBudget int) *Client {
	t.Helper()
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	require.NoError(t, err)
	return &Client{
		tokenBudget: tokenBudget,
		encoder:     encoder,
		logger:      zap.NewNop(),
	}
}

func trimTestTurns() []models.ChatTurn {
	return []models.ChatTurn{
		{Role: models.ChatRoleUser, Content: "I sneak past the sleeping troll and reach for the chest."},
		{Role: models.ChatRoleAssistant, Content: "The lock clicks open, but the troll stirs in its sleep."},
		{Role: models.ChatRoleUser, Content: "I freeze and wait for it to settle down again."},
	}
}

func (c *Client) countTokens(content string) int {
	return len(c.encoder.Encode(content, nil, nil))
}

func TestTrimToTokenBudget_UnderBudgetUnchanged(t *testing.T) {
	c := newTrimTestClient(t, 1)
	turns := trimTestTurns()

	total := 0
	for _, turn := range turns {
		total += c.countTokens(turn.Content)
	}
	c.tokenBudget = total

	assert.Equal(t, turns, c.trimToTokenBudget(turns))
}

func TestTrimToTokenBudget_DropsOldestFirst(t *testing.T) {
	c := newTrimTestClient(t, 1)
	turns := trimTestTurns()

	// Бюджета хватает ровно на два последних сообщения
	c.tokenBudget = c.countTokens(turns[1].Content) + c.countTokens(turns[2].Content)

	trimmed := c.trimToTokenBudget(turns)
	require.Len(t, trimmed, 2)
	assert.Equal(t, turns[1], trimmed[0])
	assert.Equal(t, turns[2], trimmed[1])
}

func TestTrimToTokenBudget_KeepsLastTurnEvenOverBudget(t *testing.T) {
	c := newTrimTestClient(t, 1)
	turns := trimTestTurns()

	// Даже если последнее сообщение само не влезает, рассказчику нужно
	// хоть что-то продолжать
	trimmed := c.trimToTokenBudget(turns)
	require.Len(t, trimmed, 1)
	assert.Equal(t, turns[2], trimmed[0])

	single := []models.ChatTurn{{Role: models.ChatRoleUser, Content: "A very long opening move that blows the whole budget on its own."}}
	assert.Equal(t, single, c.trimToTokenBudget(single))
}

func TestTrimToTokenBudget_EmptyWindow(t *testing.T) {
	c := newTrimTestClient(t, 1)
	assert.Empty(t, c.trimToTokenBudget(nil))
}
