package logic

import (
	"github.com/blues/tss/internal/model"
	"github.com/blues/tss/internal/storage"
)

// 售卖身份配置的存取：管理员、售卖代币、资金接收方、售卖参数
// 这些字段存放在不过期的instance命名空间，需要覆盖整个售卖周期

func hasAdmin(st *storage.Store) (bool, error) {
	return st.HasInstance(storage.AdminKey())
}

func readAdmin(st *storage.Store) (string, error) {
	admin, ok, err := st.GetInstance(storage.AdminKey())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotInitialized
	}
	return admin, nil
}

func writeAdmin(st *storage.Store, admin string) error {
	return st.SetInstance(storage.AdminKey(), admin)
}

func readSaleToken(st *storage.Store) (string, error) {
	token, ok, err := st.GetInstance(storage.SaleTokenKey())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrSaleTokenNotSet
	}
	return token, nil
}

func writeSaleToken(st *storage.Store, token string) error {
	return st.SetInstance(storage.SaleTokenKey(), token)
}

func readFundRecipient(st *storage.Store) (string, error) {
	recipient, ok, err := st.GetInstance(storage.FundRecipientKey())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrFundRecipientNotSet
	}
	return recipient, nil
}

func writeFundRecipient(st *storage.Store, recipient string) error {
	return st.SetInstance(storage.FundRecipientKey(), recipient)
}

// readSaleParameters 读取售卖参数
// 售卖结束后照常返回存量记录，"是否仍在售卖"由出资路径自行判断
func readSaleParameters(st *storage.Store) (model.SaleParameters, bool, error) {
	var params model.SaleParameters
	ok, err := st.GetInstanceJSON(storage.SaleParametersKey(), &params)
	if err != nil {
		return model.SaleParameters{}, false, err
	}
	return params, ok, nil
}

// writeSaleParameters 校验并整组替换售卖参数
func writeSaleParameters(st *storage.Store, now uint64, params model.SaleParameters) error {
	if params.EndTime <= now ||
		params.EndTime < params.StartTime ||
		params.SoftCap == 0 ||
		params.HardCap < params.SoftCap ||
		params.MaxBuy < params.MinBuy ||
		params.TgeTime < params.EndTime {
		return ErrInvalidParameters
	}
	return st.SetInstanceJSON(storage.SaleParametersKey(), params)
}
