package storage

import (
	"math/big"
	"testing"
	"time"

	"github.com/blues/tss/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.StoreEntry{}))
	return db
}

func newTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	now := time.Unix(1_700_000_000, 0)
	st := NewStore(newTestDB(t))
	st.now = func() time.Time { return now }
	return st, &now
}

func TestInstanceEntries(t *testing.T) {
	st, _ := newTestStore(t)

	_, ok, err := st.GetInstance(SaleTokenKey())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.SetInstance(SaleTokenKey(), "0xToken"))
	value, ok, err := st.GetInstance(SaleTokenKey())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0xToken", value)

	// 覆盖写
	require.NoError(t, st.SetInstance(SaleTokenKey(), "0xOther"))
	value, _, err = st.GetInstance(SaleTokenKey())
	require.NoError(t, err)
	assert.Equal(t, "0xOther", value)

	has, err := st.HasInstance(SaleTokenKey())
	require.NoError(t, err)
	assert.True(t, has)
}

func TestPersistentDefaultsToZero(t *testing.T) {
	st, _ := newTestStore(t)

	amount, err := st.GetPersistentAmount(TotalSoldKey())
	require.NoError(t, err)
	assert.Zero(t, amount.Sign())

	rate, err := st.GetPersistentUint64(SaleRateKey("0xPay"))
	require.NoError(t, err)
	assert.Zero(t, rate)
}

func TestPersistentAmountRoundTrip(t *testing.T) {
	st, _ := newTestStore(t)

	// 超出u64范围的金额也要能存取
	amount, _ := new(big.Int).SetString("170141183460469231731687303715884105727", 10)
	require.NoError(t, st.SetPersistentAmount(TotalSoldKey(), amount))

	got, err := st.GetPersistentAmount(TotalSoldKey())
	require.NoError(t, err)
	assert.Zero(t, got.Cmp(amount))
}

func TestLeaseExpiredEntryReadsAsAbsent(t *testing.T) {
	st, now := newTestStore(t)

	require.NoError(t, st.SetPersistentUint64(ParticipantsCountKey(), 7))

	// 过了完整租期后条目视同不存在
	*now = now.Add(LeaseDuration + time.Hour)
	count, err := st.GetPersistentUint64(ParticipantsCountKey())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLeaseRenewedOnRead(t *testing.T) {
	st, now := newTestStore(t)

	require.NoError(t, st.SetPersistentUint64(ParticipantsCountKey(), 7))

	// 每29天读一次，条目一直保活
	for i := 0; i < 4; i++ {
		*now = now.Add(29 * 24 * time.Hour)
		count, err := st.GetPersistentUint64(ParticipantsCountKey())
		require.NoError(t, err)
		assert.Equal(t, uint64(7), count)
	}
}

func TestLeaseRenewalSkippedWhenFresh(t *testing.T) {
	st, now := newTestStore(t)

	require.NoError(t, st.SetPersistentUint64(ParticipantsCountKey(), 7))
	wrote := now.Add(LeaseDuration)

	// 剩余租期仍高于阈值，读取不应改动到期时间
	*now = now.Add(time.Hour)
	_, err := st.GetPersistentUint64(ParticipantsCountKey())
	require.NoError(t, err)

	var entry model.StoreEntry
	require.NoError(t, st.db.Where("namespace = ? AND key = ?", model.NamespacePersistent, ParticipantsCountKey()).First(&entry).Error)
	require.NotNil(t, entry.ExpiresAt)
	assert.Equal(t, wrote.Unix(), entry.ExpiresAt.Unix())
}

func TestExpiredKeysAndDelete(t *testing.T) {
	st, now := newTestStore(t)

	require.NoError(t, st.SetPersistentUint64(SaleRateKey("0xA"), 1))
	require.NoError(t, st.SetPersistentUint64(SaleRateKey("0xB"), 2))
	// 身份配置不过期，不应被清理
	require.NoError(t, st.SetInstance(SaleTokenKey(), "0xToken"))

	*now = now.Add(LeaseDuration + time.Hour)

	keys, err := st.ExpiredKeys(10)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	for _, key := range keys {
		deleted, err := st.DeleteExpired(key)
		require.NoError(t, err)
		assert.True(t, deleted)
	}

	keys, err = st.ExpiredKeys(10)
	require.NoError(t, err)
	assert.Empty(t, keys)

	// 身份配置原样保留
	_, ok, err := st.GetInstance(SaleTokenKey())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteExpiredSkipsRenewedEntry(t *testing.T) {
	st, now := newTestStore(t)

	require.NoError(t, st.SetPersistentUint64(SaleRateKey("0xA"), 1))
	*now = now.Add(LeaseDuration + time.Hour)

	keys, err := st.ExpiredKeys(10)
	require.NoError(t, err)
	require.Len(t, keys, 1)

	// 清理途中条目被重新写入续租，删除应放弃
	require.NoError(t, st.SetPersistentUint64(SaleRateKey("0xA"), 3))
	deleted, err := st.DeleteExpired(keys[0])
	require.NoError(t, err)
	assert.False(t, deleted)

	rate, err := st.GetPersistentUint64(SaleRateKey("0xA"))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), rate)
}
