package auth

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// 授权失败原因
var (
	ErrMissingSignature = errors.New("缺少签名")
	ErrInvalidSignature = errors.New("签名格式不合法")
	ErrNotAuthorized    = errors.New("签名与操作地址不匹配")
)

// Verifier 地址授权校验器
// 每个状态变更操作都必须证明调用方控制对应地址：客户端对请求体做
// personal-sign，服务端恢复签名者地址并与操作声明的地址比对。
type Verifier struct{}

func NewVerifier() *Verifier {
	return &Verifier{}
}

// Require 校验signature是否是address对message的签名，失败即中止本次操作
func (v *Verifier) Require(address string, message []byte, signature string) error {
	signer, err := v.RecoverSigner(message, signature)
	if err != nil {
		return err
	}
	if !strings.EqualFold(signer, address) {
		return ErrNotAuthorized
	}
	return nil
}

// RecoverSigner 从personal-sign签名中恢复签名者地址
func (v *Verifier) RecoverSigner(message []byte, signature string) (string, error) {
	if signature == "" {
		return "", ErrMissingSignature
	}

	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return "", ErrInvalidSignature
	}

	// 钱包签名的v是27/28，恢复时要归一化到0/1
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig = append([]byte(nil), sig...)
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pubKey, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return "", ErrInvalidSignature
	}
	return crypto.PubkeyToAddress(*pubKey).Hex(), nil
}
