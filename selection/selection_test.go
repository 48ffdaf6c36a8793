package selection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libledger-go/amount"
	"github.com/bitfsorg/libledger-go/ledger"
)

// mockPrompter is a test double for Prompter that records every prompt.
type mockPrompter struct {
	ChooseFn func(call int, options []Option, target amount.Amount) ([]uint64, error)
	calls    [][]Option
}

func (m *mockPrompter) Choose(options []Option, target amount.Amount) ([]uint64, error) {
	m.calls = append(m.calls, options)
	return m.ChooseFn(len(m.calls), options, target)
}

func utxos(amounts ...amount.Amount) []*ledger.UTXO {
	out := make([]*ledger.UTXO, len(amounts))
	for i, a := range amounts {
		out[i] = &ledger.UTXO{ID: uint64(i + 1), Amount: a, Owner: "alice"}
	}
	return out
}

func ids(us []*ledger.UTXO) []uint64 {
	out := make([]uint64, len(us))
	for i, u := range us {
		out[i] = u.ID
	}
	return out
}

// --- Session tests ---

func TestSession(t *testing.T) {
	s := NewSession()
	assert.Len(t, s.ID(), 36)
	assert.NotEqual(t, s.ID(), NewSession().ID())

	s.Claim(2)
	assert.True(t, s.Claimed(2))
	assert.Equal(t, []uint64{1, 3}, ids(s.Unclaimed(utxos(1, 2, 3))))

	s.Release()
	assert.False(t, s.Claimed(2))
	assert.Len(t, s.Unclaimed(utxos(1, 2, 3)), 3)
}

// --- Greedy strategy tests ---

func TestLargestFirst(t *testing.T) {
	tests := []struct {
		name      string
		amounts   []amount.Amount
		target    amount.Amount
		wantIDs   []uint64
		wantTotal amount.Amount
	}{
		{"single covers", []amount.Amount{10, 50, 30}, 40, []uint64{2}, 50},
		{"two needed", []amount.Amount{10, 50, 30}, 70, []uint64{2, 3}, 80},
		{"exact total", []amount.Amount{10, 50, 30}, 90, []uint64{2, 3, 1}, 90},
		{"ties by id", []amount.Amount{20, 20, 20}, 30, []uint64{1, 2}, 40},
		{"zero target", []amount.Amount{5}, 0, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chosen, total, err := LargestFirst{}.Select(NewSession(), utxos(tt.amounts...), tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			if tt.wantIDs == nil {
				assert.Empty(t, chosen)
			} else {
				assert.Equal(t, tt.wantIDs, ids(chosen))
			}
		})
	}
}

func TestOldestFirst(t *testing.T) {
	candidates := utxos(10, 50, 30)
	// Shuffled input must not matter.
	candidates[0], candidates[2] = candidates[2], candidates[0]

	chosen, total, err := OldestFirst{}.Select(NewSession(), candidates, 55)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids(chosen))
	assert.Equal(t, amount.Amount(60), total)
}

func TestGreedy_Insufficient(t *testing.T) {
	for _, st := range []Strategy{LargestFirst{}, OldestFirst{}} {
		_, _, err := st.Select(NewSession(), utxos(10, 20), 31)
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	}
}

func TestGreedy_ClaimsAndSkipsClaimed(t *testing.T) {
	s := NewSession()
	candidates := utxos(50, 40, 30)

	first, _, err := LargestFirst{}.Select(s, candidates, 45)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, ids(first))
	assert.True(t, s.Claimed(1))

	second, _, err := LargestFirst{}.Select(s, candidates, 45)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3}, ids(second))

	_, _, err = LargestFirst{}.Select(s, candidates, 1)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
}

func TestGreedy_FailureClaimsNothing(t *testing.T) {
	s := NewSession()
	_, _, err := OldestFirst{}.Select(s, utxos(1, 2), 10)
	require.Error(t, err)
	assert.False(t, s.Claimed(1))
	assert.False(t, s.Claimed(2))
}

// --- Interactive tests ---

func TestInteractive_FirstReplyCovers(t *testing.T) {
	p := &mockPrompter{ChooseFn: func(_ int, options []Option, target amount.Amount) ([]uint64, error) {
		assert.Equal(t, amount.Amount(25), target)
		assert.Equal(t, []Option{{1, 10}, {2, 20}, {3, 30}}, options)
		return []uint64{1, 2}, nil
	}}
	s := NewSession()

	chosen, total, err := (&Interactive{Prompter: p}).Select(s, utxos(10, 20, 30), 25)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids(chosen))
	assert.Equal(t, amount.Amount(30), total)
	assert.True(t, s.Claimed(1))
	assert.Len(t, p.calls, 1)
}

func TestInteractive_RepromptsWithRemainder(t *testing.T) {
	var targets []amount.Amount
	p := &mockPrompter{ChooseFn: func(call int, _ []Option, target amount.Amount) ([]uint64, error) {
		targets = append(targets, target)
		if call == 1 {
			return []uint64{1}, nil
		}
		return []uint64{2}, nil
	}}
	s := NewSession()

	chosen, total, err := (&Interactive{Prompter: p}).Select(s, utxos(10, 20, 30), 25)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids(chosen))
	assert.Equal(t, amount.Amount(30), total)
	require.Len(t, p.calls, 2)
	// A pick is claimed at once and never offered again.
	assert.Equal(t, []Option{{2, 20}, {3, 30}}, p.calls[1])
	assert.Equal(t, []amount.Amount{25, 15}, targets)
	assert.True(t, s.Claimed(1))
	assert.True(t, s.Claimed(2))
	assert.False(t, s.Claimed(3))
}

func TestInteractive_GivesUpAfterMaxAttempts(t *testing.T) {
	p := &mockPrompter{ChooseFn: func(int, []Option, amount.Amount) ([]uint64, error) {
		return nil, nil
	}}
	_, _, err := (&Interactive{Prompter: p, MaxAttempts: 2}).Select(NewSession(), utxos(10, 20), 15)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Len(t, p.calls, 2)
}

func TestInteractive_RepickingClaimedFails(t *testing.T) {
	p := &mockPrompter{ChooseFn: func(int, []Option, amount.Amount) ([]uint64, error) {
		return []uint64{1}, nil
	}}
	_, _, err := (&Interactive{Prompter: p}).Select(NewSession(), utxos(10, 20), 15)
	assert.ErrorIs(t, err, ErrUnknownOption)
	assert.Len(t, p.calls, 2)
}

func TestInteractive_UnknownOption(t *testing.T) {
	s := NewSession()
	s.Claim(2)
	p := PrompterFunc(func([]Option, amount.Amount) ([]uint64, error) {
		return []uint64{2}, nil
	})
	_, _, err := (&Interactive{Prompter: p}).Select(s, utxos(10, 20, 30), 5)
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestInteractive_InsufficientSkipsPrompt(t *testing.T) {
	p := &mockPrompter{ChooseFn: func(int, []Option, amount.Amount) ([]uint64, error) {
		t.Fatal("prompter must not be called")
		return nil, nil
	}}
	_, _, err := (&Interactive{Prompter: p}).Select(NewSession(), utxos(1, 2), 10)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
}

func TestInteractive_PrompterError(t *testing.T) {
	boom := errors.New("stdin closed")
	p := PrompterFunc(func([]Option, amount.Amount) ([]uint64, error) { return nil, boom })
	_, _, err := (&Interactive{Prompter: p}).Select(NewSession(), utxos(10), 5)
	assert.ErrorIs(t, err, boom)
}

func TestInteractive_NoPrompter(t *testing.T) {
	_, _, err := (&Interactive{}).Select(NewSession(), utxos(10), 5)
	assert.ErrorIs(t, err, ErrNoPrompter)
}

// --- FromName tests ---

func TestFromName(t *testing.T) {
	st, err := FromName("", nil)
	require.NoError(t, err)
	assert.IsType(t, LargestFirst{}, st)

	st, err = FromName(NameOldestFirst, nil)
	require.NoError(t, err)
	assert.IsType(t, OldestFirst{}, st)

	_, err = FromName(NameInteractive, nil)
	assert.ErrorIs(t, err, ErrNoPrompter)

	p := PrompterFunc(func([]Option, amount.Amount) ([]uint64, error) { return nil, nil })
	st, err = FromName(NameInteractive, p)
	require.NoError(t, err)
	assert.IsType(t, &Interactive{}, st)

	_, err = FromName("random", nil)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}
