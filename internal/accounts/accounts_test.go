package accounts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

func setupAccountTest(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&types.Account{}))

	seed := []types.Account{
		{AccountID: "ACC001-MARGIN", ClientID: "CLIENT001", AccountName: "Quantum Margin", AccountType: "MARGIN", IsActive: true},
		{AccountID: "ACC001-CASH", ClientID: "CLIENT001", AccountName: "Quantum Cash Equities", AccountType: "CASH", IsDefault: true, IsActive: true},
		{AccountID: "ACC002-CASH", ClientID: "CLIENT002", AccountName: "Meridian Primary", AccountType: "CASH", IsDefault: true, IsActive: true},
		{AccountID: "ACC001-OLD", ClientID: "CLIENT001", AccountName: "Quantum Legacy", AccountType: "CASH", IsActive: false},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	return NewService(db)
}

func TestList_FiltersByClientDefaultFirst(t *testing.T) {
	s := setupAccountTest(t)

	accounts, err := s.List("CLIENT001")
	require.NoError(t, err)
	require.Len(t, accounts, 2, "inactive accounts are hidden")
	assert.Equal(t, "ACC001-CASH", accounts[0].AccountID, "the default account lists first")
	assert.Equal(t, "ACC001-MARGIN", accounts[1].AccountID)
}

func TestList_AllClients(t *testing.T) {
	s := setupAccountTest(t)

	accounts, err := s.List("")
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "CLIENT001", accounts[0].ClientID)
	assert.Equal(t, "CLIENT002", accounts[2].ClientID)
}

func TestGet(t *testing.T) {
	s := setupAccountTest(t)

	account, err := s.Get("ACC002-CASH")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, "Meridian Primary", account.AccountName)

	missing, err := s.Get("ACC404")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
