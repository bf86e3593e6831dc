package service

import (
	"context"
	"strings"
	"testing"

	"github.com/cartai/ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedeemCodeReferrerWithActivePackage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	referrer, referrerAcc := f.register(t, "oscar")
	referee, _ := f.register(t, "paula")
	f.buyPackage(t, referrer, "basico-50k")

	res, err := f.referrals.RedeemCode(ctx, referee, " "+strings.ToLower(referrerAcc.ReferralCode)+" ")
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(2_000), res.RefereeBonus)
	assert.Equal(t, domain.Amount(6_000), res.ReferrerBonus)
	assert.Equal(t, domain.Amount(2_000), res.BonusBalance)

	assert.Equal(t, int64(2_000), f.account(t, referee.AccountID).BonusBalance)
	assert.Equal(t, int64(6_000), f.account(t, referrer.AccountID).BonusBalance)
	require.NotNil(t, f.account(t, referee.AccountID).ReferredByCode)

	list, err := f.referrals.ListReferrals(ctx, referrer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, referee.AccountID, list[0].RefereeID)
	assert.Equal(t, domain.Amount(6_000), list[0].ReferrerBonus)
	f.requireNoDrift(t)
}

func TestRedeemCodeReferrerWithoutPackage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, referrerAcc := f.register(t, "quique")
	referee, _ := f.register(t, "rosa")

	res, err := f.referrals.RedeemCode(ctx, referee, referrerAcc.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(2_000), res.RefereeBonus)
	assert.Zero(t, res.ReferrerBonus)
	assert.Zero(t, f.account(t, referrerAcc.ID).BonusBalance)

	// Buying a package later does not pay the referrer retroactively.
	f.buyPackage(t, Actor{AccountID: referrerAcc.ID, Role: domain.RoleUser}, "basico-50k")
	assert.Zero(t, f.account(t, referrerAcc.ID).BonusBalance)
}

func TestRedeemCodeErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, actorAcc := f.register(t, "sara")
	_, firstAcc := f.register(t, "tomas")
	_, secondAcc := f.register(t, "ursula")

	cases := []struct {
		name string
		code string
		want error
	}{
		{name: "too_short", code: "ab1", want: ErrInvalidCode},
		{name: "own_code", code: actorAcc.ReferralCode, want: ErrInvalidCode},
		{name: "unknown", code: "ZZZZ9999", want: ErrCodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.referrals.RedeemCode(ctx, actor, tc.code)
			require.ErrorIs(t, err, tc.want)
			assert.Zero(t, f.account(t, actor.AccountID).BonusBalance)
		})
	}

	_, err := f.referrals.RedeemCode(ctx, actor, firstAcc.ReferralCode)
	require.NoError(t, err)

	t.Run("second_redemption_with_other_valid_code", func(t *testing.T) {
		_, err := f.referrals.RedeemCode(ctx, actor, secondAcc.ReferralCode)
		require.ErrorIs(t, err, ErrAlreadyReferred)
		assert.Equal(t, int64(2_000), f.account(t, actor.AccountID).BonusBalance)
	})
}

func TestConcurrentReferralRedemption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor, _ := f.register(t, "valeria")

	codes := make([]string, 6)
	for i := range codes {
		_, acc := f.register(t, "referrer")
		codes[i] = acc.ReferralCode
	}

	errs := make(chan error, len(codes))
	for _, code := range codes {
		go func(code string) {
			_, err := f.referrals.RedeemCode(ctx, actor, code)
			errs <- err
		}(code)
	}
	var ok int
	for range codes {
		if err := <-errs; err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyReferred)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, int64(2_000), f.account(t, actor.AccountID).BonusBalance)
}
