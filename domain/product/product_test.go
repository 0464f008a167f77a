package product

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProduct(t *testing.T) {
	p := New("Chair", decimal.NewFromInt(100))
	id := p.ID()

	assert.NotEqual(t, uuid.Nil, id)
	assert.NotEqual(t, id, New("Chair", decimal.NewFromInt(100)).ID())

	p.Update("Table", decimal.NewFromInt(250))

	assert.Equal(t, id, p.ID())
	assert.Equal(t, "Table", p.Name)
	assert.Equal(t, "250", p.BasePrice.String())
	assert.Equal(t, id, Restore(id, "Table", decimal.NewFromInt(250)).ID())
}
