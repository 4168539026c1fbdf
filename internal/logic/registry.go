package logic

import (
	"github.com/blues/tss/internal/storage"
)

// 支付代币登记表：1起始的追加式索引表，外加支持标记和兑换率
// 登记项只增不删，兑换率清零即可把代币从批量结算路径里摘掉

func readPaymentCount(st *storage.Store) (uint64, error) {
	return st.GetInstanceUint64(storage.PaymentTokenCountKey())
}

// writePaymentToken 追加登记一个支付代币
// 不做去重，重复登记同一地址是管理员侧的使用约定
func writePaymentToken(st *storage.Store, token string) error {
	count, err := readPaymentCount(st)
	if err != nil {
		return err
	}

	index := count + 1
	if err := st.SetInstance(storage.PaymentTokenKey(index), token); err != nil {
		return err
	}
	if err := st.SetInstance(storage.IsSupportedPaymentKey(token), "true"); err != nil {
		return err
	}
	return st.SetInstanceUint64(storage.PaymentTokenCountKey(), index)
}

func readIsSupportedPaymentToken(st *storage.Store, token string) (bool, error) {
	return st.HasInstance(storage.IsSupportedPaymentKey(token))
}

// readPaymentTokens 全量登记列表
func readPaymentTokens(st *storage.Store) ([]string, error) {
	count, err := readPaymentCount(st)
	if err != nil {
		return nil, err
	}

	tokens := make([]string, 0, count)
	for index := uint64(1); index <= count; index++ {
		token, ok, err := st.GetInstance(storage.PaymentTokenKey(index))
		if err != nil {
			return nil, err
		}
		if ok {
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

// readActivePaymentTokens 兑换率非零的登记项
// 退款和提款按这份列表批量结算，率为零的代币被跳过
func readActivePaymentTokens(st *storage.Store) ([]string, error) {
	tokens, err := readPaymentTokens(st)
	if err != nil {
		return nil, err
	}

	active := make([]string, 0, len(tokens))
	for _, token := range tokens {
		rate, err := readSaleRate(st, token)
		if err != nil {
			return nil, err
		}
		if rate > 0 {
			active = append(active, token)
		}
	}
	return active, nil
}

// readSaleRate 兑换率，未设置为0
func readSaleRate(st *storage.Store, token string) (uint64, error) {
	return st.GetPersistentUint64(storage.SaleRateKey(token))
}

func writeSaleRate(st *storage.Store, token string, rate uint64) error {
	return st.SetPersistentUint64(storage.SaleRateKey(token), rate)
}
