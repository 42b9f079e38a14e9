package conversation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewIdleState(t *testing.T) {
	customerID := uuid.New()
	state := NewIdleState(customerID)

	assert.Equal(t, StepIdle, state.Step)
	assert.Empty(t, state.Data)
	assert.False(t, state.Expired(time.Now()), "zero expiry is never expired")
}

func TestState_Expired(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	state := NewIdleState(uuid.New())
	state.Touch(now)

	assert.False(t, state.Expired(now.Add(29*time.Minute)))
	assert.True(t, state.Expired(now.Add(31*time.Minute)))
	assert.True(t, state.Expired(now.Add(30*time.Minute)), "boundary counts as expired")
}

func TestState_Merge(t *testing.T) {
	state := NewIdleState(uuid.New())

	state.Merge(Data{DataKeyProductCode: "BK-001"})
	state.Merge(Data{DataKeyQuantity: "3"})
	assert.Equal(t, Data{DataKeyProductCode: "BK-001", DataKeyQuantity: "3"}, state.Data)

	// New keys win on conflict.
	state.Merge(Data{DataKeyQuantity: "5"})
	assert.Equal(t, "5", state.Data[DataKeyQuantity])
}

func TestState_Merge_NilData(t *testing.T) {
	state := &State{CustomerID: uuid.New(), Step: StepIdle}
	state.Merge(Data{DataKeyName: "Rita"})
	assert.Equal(t, "Rita", state.Data[DataKeyName])
}

func TestState_Touch(t *testing.T) {
	now := time.Now()
	state := NewIdleState(uuid.New())
	state.Touch(now)

	assert.Equal(t, now.Add(DefaultTTL), state.ExpiresAt)
}
