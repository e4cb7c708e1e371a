package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLedgerConfigDefaultsWhenFileMissing(t *testing.T) {
	holder, err := newLedgerConfigHolder([]string{t.TempDir()}, zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, time.Hour, cfg.ReconcileInterval)
	assert.True(t, cfg.AtomicWrites)
	assert.Equal(t, "25", cfg.LateFee.Amount.String())
	assert.Equal(t, 5, cfg.LateFee.GraceDays)
	assert.True(t, cfg.AllowsUnitSize("10x15"))
	assert.False(t, cfg.AllowsUnitSize("3x3"))
}

func TestLedgerConfigFileOverridesSomeKeys(t *testing.T) {
	dir := t.TempDir()
	body := "ledger:\n  reconcileInterval: 15m\n  lateFee:\n    graceDays: 10\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ledger.yml"), []byte(body), 0o600))

	holder, err := newLedgerConfigHolder([]string{dir}, zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 15*time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, 10, cfg.LateFee.GraceDays)
	assert.Equal(t, "25", cfg.LateFee.Amount.String())
	assert.Len(t, cfg.UnitSizes, 7)
}

func TestLedgerConfigRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	body := "ledger:\n  defaultPageSize: 1000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ledger.yml"), []byte(body), 0o600))

	_, err := newLedgerConfigHolder([]string{dir}, zap.NewNop())
	require.Error(t, err)
}

func TestLedgerConfigLateFeeAmountIsExact(t *testing.T) {
	cases := map[string]string{
		"ledger:\n  lateFee:\n    amount: 12.10\n":     "12.1",
		"ledger:\n  lateFee:\n    amount: \"7.35\"\n":  "7.35",
		"ledger:\n  lateFee:\n    amount: 30\n":        "30",
		"ledger:\n  lateFee:\n    amount: 0.1\n":       "0.1",
		"ledger:\n  lateFee:\n    amount: \"19.99\"\n": "19.99",
	}
	for body, want := range cases {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "ledger.yml"), []byte(body), 0o600))

		holder, err := newLedgerConfigHolder([]string{dir}, zap.NewNop())
		require.NoError(t, err, body)
		assert.Equal(t, want, holder.Get().LateFee.Amount.String(), body)
	}
}

func TestLedgerConfigLateFeeAmountFromEnv(t *testing.T) {
	t.Setenv("STORAGEDESK_LEDGER_LATEFEE_AMOUNT", "15.75")

	holder, err := newLedgerConfigHolder([]string{t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "15.75", holder.Get().LateFee.Amount.String())
}

func TestLedgerConfigRejectsBadLateFeeAmount(t *testing.T) {
	for _, body := range []string{
		"ledger:\n  lateFee:\n    amount: -5\n",
		"ledger:\n  lateFee:\n    amount: lots\n",
	} {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "ledger.yml"), []byte(body), 0o600))

		_, err := newLedgerConfigHolder([]string{dir}, zap.NewNop())
		assert.Error(t, err, body)
	}
}
