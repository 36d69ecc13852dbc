package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leakwatch/leakwatch-api/internal/models"
)

func TestLeakFSM_FullRecoveryPath(t *testing.T) {
	ctx := context.Background()
	leak := &models.Leak{Status: models.LeakStatusDetected}
	machine := NewLeakFSM(leak)

	require.NoError(t, machine.Investigate(ctx))
	assert.Equal(t, models.LeakStatusInvestigating, leak.Status)

	require.NoError(t, machine.StartRecovery(ctx))
	assert.Equal(t, models.LeakStatusInRecovery, leak.Status)

	require.NoError(t, machine.Recover(ctx))
	assert.Equal(t, models.LeakStatusRecovered, leak.Status)
}

func TestLeakFSM_DetectedCanSkipToRecovery(t *testing.T) {
	leak := &models.Leak{Status: models.LeakStatusDetected}
	machine := NewLeakFSM(leak)

	require.NoError(t, machine.StartRecovery(context.Background()))
	assert.Equal(t, models.LeakStatusInRecovery, leak.Status)
}

func TestLeakFSM_RecoverRequiresInRecovery(t *testing.T) {
	leak := &models.Leak{Status: models.LeakStatusDetected}
	machine := NewLeakFSM(leak)

	err := machine.Recover(context.Background())
	assert.Error(t, err)
	assert.Equal(t, models.LeakStatusDetected, leak.Status)
}

func TestLeakFSM_RecoveredIsTerminal(t *testing.T) {
	ctx := context.Background()
	leak := &models.Leak{Status: models.LeakStatusRecovered}
	machine := NewLeakFSM(leak)

	assert.Error(t, machine.Investigate(ctx))
	assert.Error(t, machine.WriteOff(ctx))
	assert.Error(t, machine.Reopen(ctx))
	assert.Equal(t, models.LeakStatusRecovered, leak.Status)
}

func TestLeakFSM_WrittenOffCanReopen(t *testing.T) {
	ctx := context.Background()
	leak := &models.Leak{Status: models.LeakStatusInvestigating}
	machine := NewLeakFSM(leak)

	require.NoError(t, machine.WriteOff(ctx))
	assert.Equal(t, models.LeakStatusWrittenOff, leak.Status)

	require.NoError(t, machine.Reopen(ctx))
	assert.Equal(t, models.LeakStatusInvestigating, leak.Status)
}

func TestLeakFSM_Can(t *testing.T) {
	machine := NewLeakFSM(&models.Leak{Status: models.LeakStatusDetected})

	assert.True(t, machine.Can("investigate"))
	assert.True(t, machine.Can("start_recovery"))
	assert.True(t, machine.Can("write_off"))
	assert.False(t, machine.Can("recover"))
	assert.False(t, machine.Can("reopen"))
}
