package account

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerd/internal/models"
	"ledgerd/internal/repositories"
	"ledgerd/internal/services/accountstate"
)

type fakeRepo struct {
	accounts map[uint]*models.Account
	states   map[uint]string
	nextID   uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		accounts: make(map[uint]*models.Account),
		states:   make(map[uint]string),
		nextID:   1,
	}
}

func (f *fakeRepo) Create(acct *models.Account) error {
	acct.ID = f.nextID
	f.nextID++
	f.accounts[acct.ID] = acct
	f.states[acct.ID] = models.AccountStateActive
	return nil
}

func (f *fakeRepo) GetByID(id uint) (*models.Account, error) {
	acct, ok := f.accounts[id]
	if !ok {
		return nil, repositories.ErrAccountNotFound
	}
	return acct, nil
}

func (f *fakeRepo) GetByNumber(number string) (*models.Account, error) {
	for _, acct := range f.accounts {
		if acct.Number == number {
			return acct, nil
		}
	}
	return nil, repositories.ErrAccountNotFound
}

func (f *fakeRepo) GetForUpdate(id uint) (*models.Account, error) { return f.GetByID(id) }

func (f *fakeRepo) Update(acct *models.Account) error {
	f.accounts[acct.ID] = acct
	return nil
}

func (f *fakeRepo) ListByOwner(ownerID uint) ([]*models.Account, error) {
	var out []*models.Account
	for _, acct := range f.accounts {
		if acct.OwnerID == ownerID {
			out = append(out, acct)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetChildren(parentID uint) ([]*models.Account, error) {
	var out []*models.Account
	for _, acct := range f.accounts {
		if acct.ParentID != nil && *acct.ParentID == parentID {
			out = append(out, acct)
		}
	}
	return out, nil
}

func (f *fakeRepo) AttachToGroup(childID, parentID uint) error {
	child, err := f.GetByID(childID)
	if err != nil {
		return err
	}
	child.ParentID = &parentID
	return nil
}

func (f *fakeRepo) CurrentState(accountID uint) (string, error) {
	state, ok := f.states[accountID]
	if !ok {
		return "", repositories.ErrAccountNotFound
	}
	return state, nil
}

func (f *fakeRepo) StateHistory(accountID uint, limit int) ([]*models.AccountStateRecord, error) {
	return nil, nil
}

func (f *fakeRepo) AppendStateRecords(records []*models.AccountStateRecord) error {
	for _, r := range records {
		f.states[r.AccountID] = r.State
	}
	return nil
}

func (f *fakeRepo) ExecuteInTransaction(fn func(repositories.AccountRepository) error) error {
	return fn(f)
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, accountstate.NewService(repo)), repo
}

func TestCreateDefaultsToUSD(t *testing.T) {
	svc, _ := newTestService()

	acct, err := svc.Create(context.Background(), CreateRequest{OwnerID: 7})
	require.NoError(t, err)

	assert.Equal(t, "USD", acct.Currency)
	assert.True(t, strings.HasPrefix(acct.Number, "ACC-"))
	assert.Len(t, acct.Number, 16)
}

func TestCreateChildInheritsParentCurrency(t *testing.T) {
	svc, _ := newTestService()

	parent, err := svc.Create(context.Background(), CreateRequest{OwnerID: 7, Currency: "EUR"})
	require.NoError(t, err)

	child, err := svc.Create(context.Background(), CreateRequest{OwnerID: 7, ParentID: &parent.ID})
	require.NoError(t, err)
	assert.Equal(t, "EUR", child.Currency)
}

func TestCreateChildCurrencyMismatch(t *testing.T) {
	svc, _ := newTestService()

	parent, err := svc.Create(context.Background(), CreateRequest{OwnerID: 7, Currency: "EUR"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateRequest{OwnerID: 7, Currency: "USD", ParentID: &parent.ID})
	assert.ErrorIs(t, err, repositories.ErrCurrencyMismatch)
}

func TestCreateRefusesSecondNestingLevel(t *testing.T) {
	svc, _ := newTestService()

	head, err := svc.Create(context.Background(), CreateRequest{OwnerID: 7})
	require.NoError(t, err)
	leaf, err := svc.Create(context.Background(), CreateRequest{OwnerID: 7, ParentID: &head.ID})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateRequest{OwnerID: 7, ParentID: &leaf.ID})
	assert.ErrorIs(t, err, repositories.ErrNestingTooDeep)
}

func TestGetAggregatesGroupBalance(t *testing.T) {
	svc, repo := newTestService()

	parent, err := svc.Create(context.Background(), CreateRequest{OwnerID: 7})
	require.NoError(t, err)
	childA, err := svc.Create(context.Background(), CreateRequest{OwnerID: 7, ParentID: &parent.ID})
	require.NoError(t, err)
	childB, err := svc.Create(context.Background(), CreateRequest{OwnerID: 7, ParentID: &parent.ID})
	require.NoError(t, err)

	repo.accounts[parent.ID].Balance = decimal.NewFromInt(100)
	repo.accounts[childA.ID].Balance = decimal.NewFromInt(250)
	repo.accounts[childB.ID].Balance = decimal.NewFromInt(50)

	overview, err := svc.Get(context.Background(), parent.ID)
	require.NoError(t, err)

	assert.Equal(t, models.AccountStateActive, overview.State)
	assert.Equal(t, 2, overview.ChildCount)
	assert.True(t, overview.ReportedBalance.Equal(decimal.NewFromInt(400)), "got %s", overview.ReportedBalance)
}

func TestGetLeafReportsOwnBalance(t *testing.T) {
	svc, repo := newTestService()

	acct, err := svc.Create(context.Background(), CreateRequest{OwnerID: 7})
	require.NoError(t, err)
	repo.accounts[acct.ID].Balance = decimal.NewFromInt(42)

	overview, err := svc.Get(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, overview.ChildCount)
	assert.True(t, overview.ReportedBalance.Equal(decimal.NewFromInt(42)))
}

func TestAttachToGroup(t *testing.T) {
	svc, _ := newTestService()

	parent, err := svc.Create(context.Background(), CreateRequest{OwnerID: 7})
	require.NoError(t, err)
	child, err := svc.Create(context.Background(), CreateRequest{OwnerID: 7})
	require.NoError(t, err)

	require.NoError(t, svc.AttachToGroup(context.Background(), child.ID, parent.ID))

	overview, err := svc.Get(context.Background(), parent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, overview.ChildCount)
}
