package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"household/internal/models"
	"household/internal/store"
)

// balances tracks the accounts locked by one ledger operation and the net
// delta applied to each, so an account touched twice is written once.
type balances struct {
	locked map[string]models.Account
	delta  map[string]int64
}

func newBalances() *balances {
	return &balances{
		locked: map[string]models.Account{},
		delta:  map[string]int64{},
	}
}

func (b *balances) track(account models.Account) {
	if _, ok := b.locked[account.ID]; !ok {
		b.locked[account.ID] = account
	}
}

func (b *balances) add(accountID string, amount int64) {
	b.delta[accountID] += amount
}

func (b *balances) balance(accountID string) int64 {
	return b.locked[accountID].Balance + b.delta[accountID]
}

// lock takes row locks on the accounts not yet tracked, in id order.
func (b *balances) lock(ctx context.Context, tx store.Getter, accounts AccountStore, ids ...string) error {
	var pending []string
	for _, id := range ids {
		if _, ok := b.locked[id]; !ok {
			pending = append(pending, id)
		}
	}
	sort.Strings(pending)
	for _, id := range pending {
		if _, ok := b.locked[id]; ok {
			continue
		}
		account, err := accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		b.locked[id] = account
	}
	return nil
}

// flush writes every non-zero delta and returns the accounts it changed.
func (b *balances) flush(ctx context.Context, tx store.Execer, accounts AccountStore) ([]models.Account, error) {
	ids := make([]string, 0, len(b.delta))
	for id, amount := range b.delta {
		if amount != 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	changed := make([]models.Account, 0, len(ids))
	for _, id := range ids {
		account := b.locked[id]
		account.Balance = b.balance(id)
		if err := accounts.UpdateBalance(ctx, tx, id, account.Balance); err != nil {
			return nil, err
		}
		changed = append(changed, account)
	}
	return changed, nil
}

func lockTwoAccounts(ctx context.Context, tx store.Getter, accounts AccountStore, firstID, secondID string) (models.Account, models.Account, error) {
	leftID, rightID := orderedIDs(firstID, secondID)
	leftAccount, err := accounts.GetForUpdate(ctx, tx, leftID)
	if err != nil {
		return models.Account{}, models.Account{}, notFound(err)
	}
	rightAccount, err := accounts.GetForUpdate(ctx, tx, rightID)
	if err != nil {
		return models.Account{}, models.Account{}, notFound(err)
	}
	if firstID == leftID {
		return leftAccount, rightAccount, nil
	}
	return rightAccount, leftAccount, nil
}

func orderedIDs(firstID, secondID string) (string, string) {
	if firstID <= secondID {
		return firstID, secondID
	}
	return secondID, firstID
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
