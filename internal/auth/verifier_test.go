package auth

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signMessage(t *testing.T, message []byte) (string, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(accounts.TextHash(message), key)
	require.NoError(t, err)

	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	return address, hexutil.Encode(sig)
}

func TestRequireAcceptsSigner(t *testing.T) {
	v := NewVerifier()
	message := []byte(`{"participant":"0xabc","amount":"50"}`)
	address, signature := signMessage(t, message)

	assert.NoError(t, v.Require(address, message, signature))
	// 地址比对不区分大小写
	assert.NoError(t, v.Require(strings.ToLower(address), message, signature))
}

func TestRequireRejectsOtherAddress(t *testing.T) {
	v := NewVerifier()
	message := []byte(`{"participant":"0xabc"}`)
	_, signature := signMessage(t, message)

	err := v.Require("0x0000000000000000000000000000000000000001", message, signature)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestRequireRejectsTamperedMessage(t *testing.T) {
	v := NewVerifier()
	message := []byte(`{"amount":"50"}`)
	address, signature := signMessage(t, message)

	err := v.Require(address, []byte(`{"amount":"5000"}`), signature)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestRecoverSignerNormalizesWalletV(t *testing.T) {
	v := NewVerifier()
	message := []byte("hello")

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := crypto.Sign(accounts.TextHash(message), key)
	require.NoError(t, err)

	// 钱包端会把v抬到27/28
	walletSig := append([]byte(nil), sig...)
	walletSig[crypto.RecoveryIDOffset] += 27

	signer, err := v.RecoverSigner(message, hexutil.Encode(walletSig))
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), signer)
}

func TestRecoverSignerRejectsMalformedInput(t *testing.T) {
	v := NewVerifier()
	message := []byte("hello")

	_, err := v.RecoverSigner(message, "")
	assert.ErrorIs(t, err, ErrMissingSignature)

	_, err = v.RecoverSigner(message, "not-hex")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// 长度不足
	_, err = v.RecoverSigner(message, "0x1234")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
