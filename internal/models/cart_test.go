package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCart_Basics(t *testing.T) {
	var nilCart *Cart
	assert.True(t, nilCart.IsEmpty())
	assert.False(t, nilCart.Contains(1))
	assert.Nil(t, nilCart.EventIDs())

	cart := &Cart{UserID: 3, Items: []CartItem{
		{EventID: 5, AddedAt: time.Now()},
		{EventID: 2, AddedAt: time.Now()},
	}}
	assert.False(t, cart.IsEmpty())
	assert.True(t, cart.Contains(5))
	assert.False(t, cart.Contains(9))
	assert.Equal(t, []int{5, 2}, cart.EventIDs())
}

func TestCart_Fingerprint(t *testing.T) {
	a := &Cart{UserID: 1, Items: []CartItem{{EventID: 5}, {EventID: 2}}}
	b := &Cart{UserID: 1, Items: []CartItem{{EventID: 2, AddedAt: time.Now()}, {EventID: 5}}}
	otherUser := &Cart{UserID: 2, Items: []CartItem{{EventID: 2}, {EventID: 5}}}
	otherContent := &Cart{UserID: 1, Items: []CartItem{{EventID: 2}}}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "order and timestamps should not matter")
	assert.NotEqual(t, a.Fingerprint(), otherUser.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), otherContent.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)
}
