package logic

import (
	"math/big"

	"github.com/blues/tss/internal/storage"
)

// 账本引擎：参与者出资、参与者购入、各代币出资总额、累计售出量
// 金额全部走persistent命名空间，读写自动续租

func readParticipantContribution(st *storage.Store, participant, token string) (*big.Int, error) {
	return st.GetPersistentAmount(storage.ParticipantContributionKey(participant, token))
}

// recordContribution 出资入账：参与者余额和该代币总额同步增加
// 金额边界由调用方预先校验，这里不再设防
func recordContribution(st *storage.Store, participant, token string, amount *big.Int) error {
	balance, err := readParticipantContribution(st, participant, token)
	if err != nil {
		return err
	}
	key := storage.ParticipantContributionKey(participant, token)
	if err := st.SetPersistentAmount(key, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}

	total, err := readTotalContribution(st, token)
	if err != nil {
		return err
	}
	return st.SetPersistentAmount(storage.TotalContributionKey(token), new(big.Int).Add(total, amount))
}

// zeroParticipantContribution 返回并清零参与者在某代币上的出资，退款用
func zeroParticipantContribution(st *storage.Store, participant, token string) (*big.Int, error) {
	balance, err := readParticipantContribution(st, participant, token)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return balance, nil
	}
	key := storage.ParticipantContributionKey(participant, token)
	if err := st.SetPersistentAmount(key, big.NewInt(0)); err != nil {
		return nil, err
	}
	return balance, nil
}

func readParticipantPurchase(st *storage.Store, participant string) (*big.Int, error) {
	return st.GetPersistentAmount(storage.AmountPurchasedKey(participant))
}

// creditPurchase 购入入账，限额校验由调用方在托管转入前完成
// 首次从零变为非零时参与者计数加一
func creditPurchase(st *storage.Store, participant string, prePurchase, totalPurchased *big.Int) error {
	if err := st.SetPersistentAmount(storage.AmountPurchasedKey(participant), totalPurchased); err != nil {
		return err
	}

	if prePurchase.Sign() == 0 {
		count, err := st.GetPersistentUint64(storage.ParticipantsCountKey())
		if err != nil {
			return err
		}
		return st.SetPersistentUint64(storage.ParticipantsCountKey(), count+1)
	}
	return nil
}

// zeroParticipantPurchase 返回并清零参与者的购入余额，领取用
func zeroParticipantPurchase(st *storage.Store, participant string) (*big.Int, error) {
	balance, err := readParticipantPurchase(st, participant)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return balance, nil
	}
	if err := st.SetPersistentAmount(storage.AmountPurchasedKey(participant), big.NewInt(0)); err != nil {
		return nil, err
	}
	return balance, nil
}

func readTotalContribution(st *storage.Store, token string) (*big.Int, error) {
	return st.GetPersistentAmount(storage.TotalContributionKey(token))
}

// zeroTotalContribution 返回并清零某代币的出资总额，提款用
func zeroTotalContribution(st *storage.Store, token string) (*big.Int, error) {
	total, err := readTotalContribution(st, token)
	if err != nil {
		return nil, err
	}
	if total.Sign() == 0 {
		return total, nil
	}
	if err := st.SetPersistentAmount(storage.TotalContributionKey(token), big.NewInt(0)); err != nil {
		return nil, err
	}
	return total, nil
}

func readTotalSold(st *storage.Store) (*big.Int, error) {
	return st.GetPersistentAmount(storage.TotalSoldKey())
}

// addTotalSold 累计售出量只增不减
func addTotalSold(st *storage.Store, purchased *big.Int) error {
	total, err := readTotalSold(st)
	if err != nil {
		return err
	}
	return st.SetPersistentAmount(storage.TotalSoldKey(), new(big.Int).Add(total, purchased))
}

func readParticipantsCount(st *storage.Store) (uint64, error) {
	return st.GetPersistentUint64(storage.ParticipantsCountKey())
}
